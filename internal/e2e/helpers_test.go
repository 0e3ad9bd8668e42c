package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"inferd/internal/catalog"
	"inferd/internal/dispatch"
	"inferd/internal/httpapi"
	"inferd/internal/journal"
	"inferd/internal/provider"
	"inferd/pkg/types"
)

// createTempModelsDir creates a temporary directory populated with empty
// .gguf files and returns the directory path.
func createTempModelsDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		p := filepath.Join(dir, n)
		if err := os.WriteFile(p, []byte(""), 0o644); err != nil {
			t.Fatalf("write temp model %s: %v", p, err)
		}
	}
	return dir
}

type daemonOptions struct {
	modelsDir   string
	catalog     []types.ModelSpec
	provider    provider.Provider
	workers     int
	queueDepth  int
	journalPath string
}

type daemon struct {
	srv *httptest.Server
	d   *dispatch.Dispatcher
}

// newDaemon assembles the full serving stack the way main does: catalog,
// provider, event chain, dispatcher, HTTP mux. Package-level knobs are
// restored via t.Cleanup.
func newDaemon(t *testing.T, opts daemonOptions) *daemon {
	t.Helper()

	specs := opts.catalog
	if opts.modelsDir != "" {
		discovered, err := catalog.Scan(opts.modelsDir)
		if err != nil {
			t.Fatalf("scan models: %v", err)
		}
		specs = catalog.Merge(discovered, specs)
	}

	prov := opts.provider
	if prov == nil {
		prov = provider.NewEcho()
	}

	var events dispatch.EventPublisher
	if opts.journalPath != "" {
		jr, err := journal.Open(opts.journalPath, zerolog.Nop())
		if err != nil {
			t.Fatalf("open journal: %v", err)
		}
		t.Cleanup(func() { _ = jr.Close() })
		httpapi.SetEventSource(jr)
		t.Cleanup(func() { httpapi.SetEventSource(nil) })
		events = httpapi.NewMetricsPublisher(jr)
	} else {
		events = httpapi.NewMetricsPublisher(nil)
	}

	d, err := dispatch.New(dispatch.Config{
		Catalog:    specs,
		Workers:    opts.workers,
		QueueDepth: opts.queueDepth,
		Provider:   prov,
		Publisher:  events,
		Logger:     zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = d.Close(ctx)
	})

	srv := httptest.NewServer(httpapi.NewMux(d))
	t.Cleanup(srv.Close)
	return &daemon{srv: srv, d: d}
}

// postJSON posts body to path and returns the status code and response body.
func postJSON(t *testing.T, base, path, body string) (int, []byte) {
	t.Helper()
	resp, err := http.Post(base+path, "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, b
}

// get fetches path and returns the status code and response body.
func get(t *testing.T, base, path string) (int, []byte) {
	t.Helper()
	resp, err := http.Get(base + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, b
}

// initializeWait blocks on initialization of name and returns the decoded
// response.
func initializeWait(t *testing.T, base, name string) types.InitializeResponse {
	t.Helper()
	status, body := postJSON(t, base, "/models/"+name+"/initialize?wait=1", "")
	if status != http.StatusOK {
		t.Fatalf("initialize %s: status=%d body=%s", name, status, body)
	}
	var out types.InitializeResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode initialize response: %v", err)
	}
	return out
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v: %s", d, msg)
}
