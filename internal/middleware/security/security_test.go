package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractClientIP(t *testing.T) {
	d := NewDetector()
	clientIP := func(remote string, headers map[string]string) string {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.RemoteAddr = remote
		for k, v := range headers {
			r.Header.Set(k, v)
		}
		return d.ExtractClientIP(r)
	}

	assert.Equal(t, "203.0.113.5", clientIP("203.0.113.5:4000", nil))
	assert.Equal(t, "198.51.100.7", clientIP("10.0.0.2:80", map[string]string{"X-Forwarded-For": "198.51.100.7, 10.0.0.2"}))
	assert.Equal(t, "198.51.100.8", clientIP("127.0.0.1:80", map[string]string{"X-Real-IP": "198.51.100.8"}))
	assert.Equal(t, "203.0.113.5", clientIP("203.0.113.5:4000", map[string]string{"X-Forwarded-For": "1.2.3.4"}), "untrusted peers cannot spoof")
	assert.Equal(t, "10.0.0.2", clientIP("10.0.0.2:80", map[string]string{"X-Forwarded-For": "not-an-ip"}))

	assert.NoError(t, d.AddTrustedProxy("203.0.113.0/24"))
	assert.Equal(t, "1.2.3.4", clientIP("203.0.113.5:4000", map[string]string{"X-Forwarded-For": "1.2.3.4"}))
	assert.Error(t, d.AddTrustedProxy("nope"))
}

func TestDetectSuspiciousRequest(t *testing.T) {
	d := NewDetector()
	cases := []struct {
		name       string
		method     string
		target     string
		userAgent  string
		suspicious bool
	}{
		{"plain list", http.MethodGet, "/v1/transactions?search=rent", "curl/8.0", false},
		{"path traversal", http.MethodGet, "/v1/../etc/passwd", "", true},
		{"sql in query", http.MethodGet, "/v1/transactions?search=1%27%20union%20select", "", true},
		{"scanner agent", http.MethodGet, "/healthz", "sqlmap/1.7", true},
		{"trace method", "TRACE", "/", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(tc.method, tc.target, nil)
			r.Header.Set("User-Agent", tc.userAgent)
			assert.Equal(t, tc.suspicious, d.DetectSuspiciousRequest(r))
		})
	}
	assert.Equal(t, int64(4), d.GetMetrics().SuspiciousRequests)
}

func TestHeadersMiddleware(t *testing.T) {
	h := NewHeadersMiddleware(DefaultHeadersConfig()).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/transactions", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "default-src 'none'; frame-ancestors 'none'", rec.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))

	req := httptest.NewRequest(http.MethodGet, "/v1/transactions", nil)
	req.TLS = &tls.ConnectionState{}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "max-age=31536000; includeSubDomains", rec.Header().Get("Strict-Transport-Security"))
}
