package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	applog "lifedash/internal/log"
)

func TestMiddleware(t *testing.T) {
	tests := []struct {
		name    string
		inbound string
		status  int
		keepID  bool
		level   string
	}{
		{"generated id", "", http.StatusCreated, false, "level=INFO"},
		{"caller id kept", "abc-123", http.StatusNotFound, true, "level=WARN"},
		{"unprintable caller id replaced", "bad id\x01", http.StatusInternalServerError, false, "level=ERROR"},
		{"implicit ok", "", 0, false, "status_code=200"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := applog.New(applog.NewTextConfig(&buf, slog.LevelDebug, applog.ComponentHTTP))
			m := NewMiddleware(logger, func(*http.Request) string { return "192.0.2.7" })

			var seen string
			h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = GetRequestID(r.Context())
				if tt.status != 0 {
					w.WriteHeader(tt.status)
				}
				_, _ = w.Write([]byte("{}"))
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/dashboard?as_of=2024-06-05", nil)
			if tt.inbound != "" {
				req.Header.Set(HeaderRequestID, tt.inbound)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if seen == "" || rec.Header().Get(HeaderRequestID) != seen {
				t.Fatalf("request id %q, header %q", seen, rec.Header().Get(HeaderRequestID))
			}
			if tt.keepID && seen != tt.inbound {
				t.Errorf("id = %q, want caller's %q", seen, tt.inbound)
			}
			if !tt.keepID && !strings.HasPrefix(seen, "req_") {
				t.Errorf("id = %q, want generated", seen)
			}

			out := buf.String()
			for _, want := range []string{"HTTP request started", "HTTP request completed", "client_ip=192.0.2.7", tt.level} {
				if !strings.Contains(out, want) {
					t.Errorf("log missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestGenerateRequestID_Unique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := GenerateRequestID()
		if len(id) != len("req_")+16 || seen[id] {
			t.Fatalf("bad or repeated id %q", id)
		}
		seen[id] = true
	}
}
