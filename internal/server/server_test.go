package server

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/desktopd/internal/config"
	"github.com/openclaw/desktopd/internal/events"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("PTY sessions require a Unix platform")
	}
}

// fakeResources lays out a resource dir whose node runtime is a shell
// script: it announces itself and then echoes stdin until killed.
func fakeResources(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	res := filepath.Join(dir, "resources")
	require.NoError(t, os.MkdirAll(filepath.Join(res, "openclaw"), 0o755))

	script := "#!/bin/sh\necho ready\nexec cat\n"
	require.NoError(t, os.WriteFile(filepath.Join(res, "node"), []byte(script), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(res, "openclaw", "openclaw.mjs"), []byte("// entry\n"), 0o644))

	return dir
}

func newTestServer(t *testing.T, resourceDir string) *Server {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	cfg := config.Default()
	cfg.Logging.Level = "error"
	cfg.Launch.ResourceDir = resourceDir
	cfg.RateLimit.Enabled = false

	srv, err := NewServer(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	return srv
}

type streamEvent struct {
	Type         string `json:"type"`
	SessionID    uint64 `json:"sessionId"`
	Data         string `json:"data"`
	Status       string `json:"status"`
	ErrorMessage string `json:"errorMessage"`
}

func readEvent(t *testing.T, conn *websocket.Conn) streamEvent {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev streamEvent
	require.NoError(t, sonic.Unmarshal(raw, &ev))
	return ev
}

func TestServerRoutes(t *testing.T) {
	srv := newTestServer(t, "")

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{"GET", "/", http.StatusOK},
		{"GET", "/health", http.StatusOK},
		{"GET", "/sessions", http.StatusOK},
		{"GET", "/settings", http.StatusOK},
		{"GET", "/launcher/configured", http.StatusOK},
		{"GET", "/metrics", http.StatusOK},
		{"GET", "/no-such-route", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			srv.Router().ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestMetricsEndpointExposesCounters(t *testing.T) {
	srv := newTestServer(t, "")

	// One recorded request makes the labeled counters appear.
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	srv.Router().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "backend_pty_sessions_active")
	assert.Contains(t, body, "backend_http_requests_total")
}

func TestStreamDeliversSessionEvents(t *testing.T) {
	skipOnWindows(t)
	srv := newTestServer(t, fakeResources(t))

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// The upgrade handler registers the client asynchronously from the
	// dialer's point of view.
	require.Eventually(t, func() bool {
		return srv.hub.ClientCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	res, err := ts.Client().Post(ts.URL+"/sessions", "application/json",
		strings.NewReader(`{"args":[],"cols":80,"rows":24}`))
	require.NoError(t, err)
	raw, err := io.ReadAll(res.Body)
	res.Body.Close()
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, res.StatusCode, string(raw))

	var created struct {
		SessionID uint64 `json:"session_id"`
	}
	require.NoError(t, sonic.Unmarshal(raw, &created))
	require.NotZero(t, created.SessionID)

	// Terminal output flows spawn -> reader -> hub -> socket.
	var output strings.Builder
	for !strings.Contains(output.String(), "ready") {
		ev := readEvent(t, conn)
		if ev.Type == events.TypeData && ev.SessionID == created.SessionID {
			output.WriteString(ev.Data)
		}
	}

	req, err := http.NewRequest(http.MethodDelete,
		fmt.Sprintf("%s/sessions/%d", ts.URL, created.SessionID), nil)
	require.NoError(t, err)
	res, err = ts.Client().Do(req)
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	// A killed session ends with a clean stop, never an error.
	for {
		ev := readEvent(t, conn)
		if ev.Type == events.TypeStatus && ev.SessionID == created.SessionID {
			assert.Equal(t, events.StatusStopped, ev.Status)
			assert.Empty(t, ev.ErrorMessage)
			break
		}
	}
}

func TestCloseShutsDownSessions(t *testing.T) {
	skipOnWindows(t)
	srv := newTestServer(t, fakeResources(t))

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/sessions", strings.NewReader(`{"args":[],"cols":80,"rows":24}`))
	req.Header.Set("Content-Type", "application/json")
	srv.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Equal(t, 1, srv.registry.Count())

	require.NoError(t, srv.Close())
	assert.Equal(t, 0, srv.registry.Count())

	// Closing twice is harmless.
	require.NoError(t, srv.Close())
}
