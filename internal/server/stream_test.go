//go:build !windows

package server

import (
	"bufio"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/loykin/sitekeeper/internal/config"
	mng "github.com/loykin/sitekeeper/internal/manager"
	"github.com/loykin/sitekeeper/internal/site"
)

func TestStreamEndpoint(t *testing.T) {
	dir := t.TempDir()
	reg := site.NewRegistry()
	require.NoError(t, reg.Add(site.Spec{Name: "web", CWD: dir, Command: "sleep 1"}))
	m := mng.New(reg, newFakeBackend(), slog.Default(), mng.Options{PollInterval: 10 * time.Millisecond})
	r := NewRouter(m, "/api", config.Auth{}, nil)
	ts := httptest.NewServer(r.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/stream/web", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	logPath := filepath.Join(dir, "activity.log")
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	require.NoError(t, err)
	_, err = f.WriteString("hello-stream\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "data:") && strings.Contains(line, "hello-stream") {
			return
		}
	}
	t.Fatalf("stream ended without the appended line: %v", sc.Err())
}

func TestStreamUnknownSite(t *testing.T) {
	ts, _ := newTestServer(t, config.Auth{})
	resp, err := http.Get(ts.URL + "/api/stream/ghost")
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}
