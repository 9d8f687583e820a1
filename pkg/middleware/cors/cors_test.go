package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, origins []string, method, origin string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(New(origins))
	r.GET("/api/v1/classes", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.OPTIONS("/api/v1/classes", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(method, "/api/v1/classes", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAllowsListedOriginWithCredentials(t *testing.T) {
	w := serve(t, []string{"https://board.example/"}, http.MethodGet, "https://board.example")
	require.Equal(t, "https://board.example", w.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRejectsUnlistedOrigin(t *testing.T) {
	w := serve(t, []string{"https://board.example"}, http.MethodGet, "https://evil.example")
	require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestWildcardWithoutCredentials(t *testing.T) {
	w := serve(t, nil, http.MethodGet, "https://anywhere.example")
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	require.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestPreflightShortCircuits(t *testing.T) {
	w := serve(t, nil, http.MethodOptions, "https://anywhere.example")
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, allowMethods, w.Header().Get("Access-Control-Allow-Methods"))
}
