package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		ok      bool
		params  Params
	}{
		{"/", "/", true, Params{}},
		{"/health", "/health", true, Params{}},
		{"/health", "/health/x", false, nil},
		{"/Build/Release/:version/", "/Build/Release/7/", true, Params{"version": "7"}},
		{"/Build/Release/:version/", "/Build/Release/7", true, Params{"version": "7"}},
		{"/Build/Release/:version/", "/Build/Release/", false, nil},
		{"/Build/Release/:version/instance", "/Build/Release/1.2.3/instance", true, Params{"version": "1.2.3"}},
		{"/a/:v/files/*path", "/a/1/files/x/y/z.js", true, Params{"v": "1", "path": "x/y/z.js"}},
		{"/a/:v/files/*path", "/a/1/files/z.js", true, Params{"v": "1", "path": "z.js"}},
		{"/a/:v/files/*path", "/a/1/files/", true, Params{"v": "1", "path": ""}},
		{"/a/:v/files/*path", "/a/1", false, nil},
		{"/a/:v/files/*path", "/a/1/other/z.js", false, nil},
		{"/a/*path/b", "/a/x/b", false, nil},
		{"/a/:/b", "/a/x/b", false, nil},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+" "+tt.path, func(t *testing.T) {
			params, ok := matchPattern(tt.pattern, tt.path)
			if ok != tt.ok {
				t.Fatalf("matchPattern(%q, %q) ok = %v, want %v", tt.pattern, tt.path, ok, tt.ok)
			}
			if !ok {
				return
			}
			if len(params) != len(tt.params) {
				t.Fatalf("params = %v, want %v", params, tt.params)
			}
			for key, want := range tt.params {
				if params[key] != want {
					t.Fatalf("params[%q] = %q, want %q", key, params[key], want)
				}
			}
		})
	}
}

func TestRouterUnmatchedIsMethodNotFound(t *testing.T) {
	router := NewRouter()
	router.Handle(http.MethodGet, "/x", func(w http.ResponseWriter, req *http.Request, params Params) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/x", nil))
	if rec.Code != http.StatusMethodNotAllowed || rec.Body.String() != "<METHOD_NOT_FOUND>" {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("route not dispatched, got %d", rec.Code)
	}
}

func TestRouterPassesParams(t *testing.T) {
	router := NewRouter()
	var got Params
	router.Handle(http.MethodGet, "/r/:version/*rest", func(w http.ResponseWriter, req *http.Request, params Params) {
		got = params
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/r/7/a/b", nil))
	if got["version"] != "7" || got["rest"] != "a/b" {
		t.Fatalf("params = %v", got)
	}
}

func TestRouterUseWrapsUnmatched(t *testing.T) {
	router := NewRouter()
	calls := 0
	router.Use(func(next HandlerFunc) HandlerFunc {
		return func(w http.ResponseWriter, req *http.Request, params Params) {
			calls++
			next(w, req, params)
		}
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	if calls != 1 || rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("calls = %d, status = %d", calls, rec.Code)
	}
}

func TestClientKey(t *testing.T) {
	tests := []struct {
		name       string
		remote     string
		forwarded  string
		trustProxy bool
		want       string
	}{
		{"remote host", "10.0.0.1:5555", "", false, "10.0.0.1"},
		{"ipv6 remote", "[::1]:5555", "", false, "::1"},
		{"forwarded ignored", "10.0.0.1:5555", "203.0.113.9", false, "10.0.0.1"},
		{"forwarded trusted", "10.0.0.1:5555", "203.0.113.9, 10.0.0.1", true, "203.0.113.9"},
		{"no port", "10.0.0.1", "", false, "10.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if got := clientKey(req, tt.trustProxy); got != tt.want {
				t.Fatalf("clientKey = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimiterIsPerClient(t *testing.T) {
	limiter := NewRateLimiter(0.001, 1, false, nil)
	if !limiter.Allow("a") || limiter.Allow("a") {
		t.Fatal("client a should get exactly one request")
	}
	if !limiter.Allow("b") {
		t.Fatal("client b has its own bucket")
	}
}

func TestUpgraderOrigins(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"no list", nil, "https://any.example.com", true},
		{"wildcard", []string{"*"}, "https://any.example.com", true},
		{"listed", []string{"https://app.example.com"}, "https://app.example.com", true},
		{"listed case", []string{"https://app.example.com"}, "https://APP.example.com", true},
		{"unlisted", []string{"https://app.example.com"}, "https://evil.example.com", false},
		{"no origin header", []string{"https://app.example.com"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if got := newUpgrader(tt.allowed).CheckOrigin(req); got != tt.want {
				t.Fatalf("CheckOrigin = %v, want %v", got, tt.want)
			}
		})
	}
}
