package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, inbound string) (string, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	var seen string
	r.GET("/", func(c *gin.Context) {
		seen = Value(c)
		c.Status(http.StatusOK)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if inbound != "" {
		req.Header.Set(headerKey, inbound)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return seen, w.Header().Get(headerKey)
}

func TestGeneratesID(t *testing.T) {
	seen, header := run(t, "")
	require.Equal(t, seen, header)
	_, err := uuid.Parse(seen)
	require.NoError(t, err)
}

func TestReusesInboundID(t *testing.T) {
	seen, _ := run(t, "abc-123")
	require.Equal(t, "abc-123", seen)
}

func TestReplacesOversizedID(t *testing.T) {
	seen, _ := run(t, strings.Repeat("x", maxLength+1))
	require.Len(t, seen, 36)
}

func TestValueWithoutMiddleware(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	require.Empty(t, Value(c))
	require.NotNil(t, Logger(c, nil))
}
