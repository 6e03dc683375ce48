package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	gmw "github.com/Laisky/gin-middlewares/v6"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/apiprobe/apiprobe/common/logger"
)

func newServer() *gin.Engine {
	gin.SetMode(gin.TestMode)
	server := gin.New()
	server.Use(gmw.NewLoggerMiddleware(gmw.WithLogger(logger.Logger.Named("test"))))
	SetRouter(server)
	return server
}

func TestSetRouterRegistersRoutes(t *testing.T) {
	server := newServer()

	routes := map[string]bool{}
	for _, r := range server.Routes() {
		routes[r.Method+" "+r.Path] = true
	}
	require.True(t, routes["POST /api/fetch"])
	require.True(t, routes["GET /api/health"])
	require.True(t, routes["POST /requests/:id/execute"])
}

func TestExecuteRouteRequiresAuth(t *testing.T) {
	server := newServer()

	w := httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/requests/00000000-0000-0000-0000-000000000000/execute", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCorsPreflight(t *testing.T) {
	server := newServer()

	req := httptest.NewRequest(http.MethodOptions, "/api/fetch", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCorsConfig(t *testing.T) {
	require.True(t, corsConfig("*").AllowAllOrigins)
	require.True(t, corsConfig("").AllowAllOrigins)

	cfg := corsConfig("https://a.example, https://b.example")
	require.False(t, cfg.AllowAllOrigins)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowOrigins)
	require.NoError(t, cfg.Validate())
}
