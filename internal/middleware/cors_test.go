package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newCORSRouter(allowlist []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS(allowlist))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func doRequest(t *testing.T, r *gin.Engine, method, origin string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(method, "/ping", nil)
	require.NoError(t, err)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORSOpenByDefault(t *testing.T) {
	r := newCORSRouter(nil)
	w := doRequest(t, r, http.MethodGet, "https://anywhere.example")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, corsMethods, w.Header().Get("Access-Control-Allow-Methods"))
}

func TestCORSAllowlistedOriginEchoed(t *testing.T) {
	r := newCORSRouter([]string{"https://app.example.com"})
	w := doRequest(t, r, http.MethodGet, "https://app.example.com")
	require.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "Origin", w.Header().Get("Vary"))
}

func TestCORSUnlistedOriginGetsNoHeaders(t *testing.T) {
	r := newCORSRouter([]string{"https://app.example.com"})
	w := doRequest(t, r, http.MethodGet, "https://evil.example.com")
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	require.Empty(t, w.Header().Get("Access-Control-Allow-Methods"))
}

func TestCORSPreflightShortCircuits(t *testing.T) {
	r := newCORSRouter(nil)
	w := doRequest(t, r, http.MethodOptions, "https://app.example.com")
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Empty(t, w.Body.String())
}

func TestCORSAllowlistSkipsBlankEntries(t *testing.T) {
	r := newCORSRouter([]string{"  ", ""})
	w := doRequest(t, r, http.MethodGet, "https://anywhere.example")
	// blanks collapse to an empty allowlist, which means open
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
