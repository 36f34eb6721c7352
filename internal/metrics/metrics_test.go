package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.ObserveCommand("USER", 331)
	c.ObserveCommand("PASS", 230)
	c.ObserveCommand("PASS", 530)
	c.ObserveCommand("NOOP", 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.commandsTotal.WithLabelValues("USER", "3xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.commandsTotal.WithLabelValues("PASS", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.commandsTotal.WithLabelValues("PASS", "5xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.commandsTotal.WithLabelValues("NOOP", "error")))

	c.ObserveTransfer("open", "download", 2048, 50*time.Millisecond, nil)
	c.ObserveTransfer("overwrite", "upload", 0, time.Millisecond, errors.New("refused"))
	c.ObserveTransfer("append", "upload", 10, time.Millisecond, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.transfersTotal.WithLabelValues("open", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.transfersTotal.WithLabelValues("overwrite", "error")))
	assert.Equal(t, 2048.0, testutil.ToFloat64(c.transferBytes.WithLabelValues("download")))
	assert.Equal(t, 10.0, testutil.ToFloat64(c.transferBytes.WithLabelValues("upload")))

	c.ObserveEntries(5)
	c.ObserveEntries(0)
	c.ObserveEntries(-1)
	assert.Equal(t, 5.0, testutil.ToFloat64(c.crawlEntries))
}

func TestCollector_Nil(t *testing.T) {
	t.Parallel()
	var c *Collector
	assert.NotPanics(t, func() {
		c.ObserveCommand("NOOP", 200)
		c.ObserveTransfer("open", "download", 1, time.Second, nil)
		c.ObserveEntries(3)
	})
}

func TestNew_SharedRegistration(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	a := New(reg)
	b := New(reg)

	a.ObserveEntries(2)
	b.ObserveEntries(3)
	assert.Equal(t, 5.0, testutil.ToFloat64(a.crawlEntries))

	n, err := testutil.GatherAndCount(reg, "ftp_crawl_entries_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestHandler(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	c := New(reg)
	c.ObserveCommand("LIST", 150)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.True(t, strings.Contains(string(body), `ftp_commands_total{class="1xx",verb="LIST"} 1`))
}
