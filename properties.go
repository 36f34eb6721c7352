package ftp

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrPropertyNotFound is returned by the typed Properties accessors when the
// key is not set.
var ErrPropertyNotFound = errors.New("ftp: property not found")

// Kind identifies the type held by a Value.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindBool
	KindTime
	KindFloat
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	case KindFloat:
		return "float"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a tagged union stored in a Properties bag.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
	t    time.Time
}

func StringValue(s string) Value { return Value{kind: KindString, s: s} }
func IntValue(i int64) Value { return Value{kind: KindInt, i: i} }
func FloatValue(f float64) Value { return Value{kind: KindFloat, f: f} }
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }
func TimeValue(t time.Time) Value { return Value{kind: KindTime, t: t} }
func (v Value) Kind() Kind { return v.kind }

// Any returns the held value as an interface.
func (v Value) Any() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	case KindTime:
		return v.t
	default:
		return v.s
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindTime:
		return v.t.Format(time.RFC3339)
	default:
		return fmt.Sprint(v.Any())
	}
}

// PropertyTypeError is returned when a property is read with an accessor
// that does not match its stored kind.
type PropertyTypeError struct {
	Key  string
	Want Kind
	Got  Kind
}

func (e *PropertyTypeError) Error() string {
	return fmt.Sprintf("ftp: property %q is %s, not %s", e.Key, e.Got, e.Want)
}

// Properties is an insertion-ordered bag of caller-attached metadata. The
// zero value is ready to use and safe for concurrent access. Reads on a nil
// *Properties behave as on an empty bag.
type Properties struct {
	mu     sync.RWMutex
	keys   []string
	values map[string]Value
}

// NewProperties returns an empty bag.
func NewProperties() *Properties {
	return &Properties{}
}

// Set stores v under key. Replacing a key keeps its original position.
func (p *Properties) Set(key string, v Value) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.values == nil {
		p.values = make(map[string]Value)
	}
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = v
}

// Get returns the value stored under key.
func (p *Properties) Get(key string) (Value, bool) {
	if p == nil {
		return Value{}, false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.values[key]
	return v, ok
}

// Delete removes key. Deleting a missing key is a no-op.
func (p *Properties) Delete(key string) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.values[key]; !ok {
		return
	}
	delete(p.values, key)
	for i, k := range p.keys {
		if k == key {
			p.keys = append(p.keys[:i], p.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (p *Properties) Keys() []string {
	if p == nil {
		return nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

func (p *Properties) Len() int {
	if p == nil {
		return 0
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.keys)
}

// Range calls fn for every property in insertion order until fn returns
// false. The bag must not be modified from fn.
func (p *Properties) Range(fn func(key string, v Value) bool) {
	if p == nil {
		return
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, k := range p.keys {
		if !fn(k, p.values[k]) {
			return
		}
	}
}

func (p *Properties) lookup(key string, want Kind) (Value, error) {
	v, ok := p.Get(key)
	if !ok {
		return Value{}, fmt.Errorf("%w: %s", ErrPropertyNotFound, key)
	}
	if v.kind != want {
		return Value{}, &PropertyTypeError{Key: key, Want: want, Got: v.kind}
	}
	return v, nil
}

func (p *Properties) String(key string) (string, error) {
	v, err := p.lookup(key, KindString)
	return v.s, err
}

func (p *Properties) Int(key string) (int64, error) {
	v, err := p.lookup(key, KindInt)
	return v.i, err
}

func (p *Properties) Float(key string) (float64, error) {
	v, err := p.lookup(key, KindFloat)
	return v.f, err
}

func (p *Properties) Bool(key string) (bool, error) {
	v, err := p.lookup(key, KindBool)
	return v.b, err
}

func (p *Properties) Time(key string) (time.Time, error) {
	v, err := p.lookup(key, KindTime)
	return v.t, err
}
