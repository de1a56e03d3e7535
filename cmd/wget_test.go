package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanq16/bootfetch/internal/env"
	"github.com/tanq16/bootfetch/internal/wget"
)

func useTempFlags(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	envFile = filepath.Join(dir, "env.yaml")
	device = ""
	ramBase = "80000000"
	ramSize = "100000"
	timeout = 5 * time.Second
	pollEvery = time.Millisecond
	userAgent = "bootfetch-test"
	metricsFile, dumpFile, bootdevFile = "", "", ""
	return dir
}

func imageServer(payload []byte) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Image" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		w.Write(payload)
	}))
}

func TestRunWgetLoadsAndExports(t *testing.T) {
	dir := useTempFlags(t)
	dumpFile = filepath.Join(dir, "Image.bin")
	bootdevFile = filepath.Join(dir, "bootdev.yaml")
	metricsFile = filepath.Join(dir, "bootfetch.prom")

	payload := bytes.Repeat([]byte("bootfetch"), 30000)
	srv := imageServer(payload)
	defer srv.Close()

	var console bytes.Buffer
	code := runWget(context.Background(), []string{"0x80010000", srv.URL + "/Image"}, &console)
	require.Equal(t, wget.CmdSuccess, code)
	assert.Contains(t, console.String(), "Bytes transferred = 270000 (41eb0 hex)")

	dumped, err := os.ReadFile(dumpFile)
	require.NoError(t, err)
	assert.Equal(t, payload, dumped)

	store, err := env.OpenFile(envFile)
	require.NoError(t, err)
	size, _ := store.Get(env.FileSize)
	assert.Equal(t, "41eb0", size)
	addr, _ := store.Get(env.FileAddr)
	assert.Equal(t, "80010000", addr)

	bd, err := os.ReadFile(bootdevFile)
	require.NoError(t, err)
	assert.Contains(t, string(bd), "protocol: Net")
	assert.Contains(t, string(bd), "path: /Image")

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `bootfetch_downloads_total{result="success"}`)
}

func TestRunWgetUsesEnvironmentServer(t *testing.T) {
	useTempFlags(t)
	srv := imageServer([]byte("kernel"))
	defer srv.Close()

	store, err := env.OpenFile(envFile)
	require.NoError(t, err)
	require.NoError(t, store.Set(env.HTTPServer, srv.Listener.Addr().String()))
	require.NoError(t, store.Set(env.LoadAddr, "80020000"))

	// host:port as server yields http://127.0.0.1:port/Image
	require.Equal(t, wget.CmdSuccess, runWget(context.Background(), []string{"Image"}, &bytes.Buffer{}))
	store, err = env.OpenFile(envFile)
	require.NoError(t, err)
	addr, _ := store.Get(env.FileAddr)
	assert.Equal(t, "80020000", addr)
}

func TestRunWgetFailures(t *testing.T) {
	srv := imageServer([]byte("kernel"))
	defer srv.Close()

	t.Run("not found", func(t *testing.T) {
		useTempFlags(t)
		assert.Equal(t, wget.CmdFailure, runWget(context.Background(), []string{srv.URL + "/missing"}, &bytes.Buffer{}))
		store, err := env.OpenFile(envFile)
		require.NoError(t, err)
		_, ok := store.Get(env.FileSize)
		assert.False(t, ok)
	})
	t.Run("usage", func(t *testing.T) {
		useTempFlags(t)
		assert.Equal(t, wget.CmdUsage, runWget(context.Background(), nil, &bytes.Buffer{}))
	})
	t.Run("bad ram window", func(t *testing.T) {
		useTempFlags(t)
		ramSize = "zero"
		assert.Equal(t, wget.CmdUsage, runWget(context.Background(), []string{srv.URL + "/Image"}, &bytes.Buffer{}))
	})
	t.Run("ram window wraps", func(t *testing.T) {
		useTempFlags(t)
		ramBase = "ffffffff00000000"
		ramSize = "100000000"
		assert.Equal(t, wget.CmdSuccess, runWget(context.Background(), []string{"ffffffff00000000", srv.URL + "/Image"}, &bytes.Buffer{}))
		ramSize = "100000001"
		assert.Equal(t, wget.CmdUsage, runWget(context.Background(), []string{"ffffffff00000000", srv.URL + "/Image"}, &bytes.Buffer{}))
	})
	t.Run("address outside ram", func(t *testing.T) {
		useTempFlags(t)
		assert.Equal(t, wget.CmdFailure, runWget(context.Background(), []string{"10000", srv.URL + "/Image"}, &bytes.Buffer{}))
	})
	t.Run("cancelled", func(t *testing.T) {
		useTempFlags(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.Equal(t, wget.CmdFailure, runWget(ctx, []string{srv.URL + "/Image"}, &bytes.Buffer{}))
	})
}

func TestValidateAll(t *testing.T) {
	assert.True(t, validateAll([]string{"http://host/path", "http://10.0.0.1:8080/a/b"}))
	assert.False(t, validateAll([]string{"http://host/path", "http://user@host/path"}))
	assert.False(t, validateAll([]string{"http://host"}))
}
