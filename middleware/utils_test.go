package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v6"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/apiprobe/apiprobe/common/ctxkey"
	"github.com/apiprobe/apiprobe/common/graceful"
	"github.com/apiprobe/apiprobe/common/helper"
	"github.com/apiprobe/apiprobe/common/jwtauth"
	"github.com/apiprobe/apiprobe/common/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(handlers ...gin.HandlerFunc) *gin.Engine {
	server := gin.New()
	server.Use(gmw.NewLoggerMiddleware(gmw.WithLogger(logger.Logger.Named("test"))), RequestId())
	server.Use(handlers...)
	return server
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	out := map[string]any{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestAbortWithError(t *testing.T) {
	server := newTestServer()
	server.GET("/bad", func(c *gin.Context) {
		AbortWithError(c, http.StatusBadRequest, errors.New("Failed to execute request: boom"))
	})
	server.GET("/internal", func(c *gin.Context) {
		AbortWithError(c, http.StatusInternalServerError, errors.New("db password leaked here"))
	})

	w := httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/bad", nil))
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, map[string]any{"status": "error", "message": "Failed to execute request: boom"}, decodeBody(t, w))

	w = httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/internal", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeBody(t, w)
	require.NotContains(t, body["message"], "password")
	require.Contains(t, body["message"], w.Header().Get(helper.RequestIdKey))
}

func TestRequestId(t *testing.T) {
	server := newTestServer()
	server.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(helper.RequestIdKey))
	})

	w := httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, w.Body.String())
	require.Equal(t, w.Body.String(), w.Header().Get(helper.RequestIdKey))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(helper.RequestIdKey, "upstream-id")
	w = httptest.NewRecorder()
	server.ServeHTTP(w, req)
	require.Equal(t, "upstream-id", w.Body.String())
}

func TestPanicRecover(t *testing.T) {
	server := newTestServer(PanicRecover())
	server.GET("/", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, "error", decodeBody(t, w)["status"])
}

func TestUserAuth(t *testing.T) {
	server := newTestServer()
	server.GET("/me", UserAuth(), func(c *gin.Context) {
		_, hasExpiry := c.Get(ctxkey.TokenExpiresAt)
		c.JSON(http.StatusOK, gin.H{"id": c.GetString(ctxkey.Id), "expires": hasExpiry})
	})

	valid, err := jwtauth.IssueToken("user-42", time.Hour)
	require.NoError(t, err)

	cases := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{"missing", "", http.StatusUnauthorized, "Missing authorization header"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "Invalid authorization header format"},
		{"garbage token", "Bearer not.a.jwt", http.StatusUnauthorized, "Invalid token"},
		{"valid", "Bearer " + valid, http.StatusOK, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if c.header != "" {
				req.Header.Set("Authorization", c.header)
			}
			w := httptest.NewRecorder()
			server.ServeHTTP(w, req)

			require.Equal(t, c.status, w.Code)
			body := decodeBody(t, w)
			if c.status == http.StatusOK {
				require.Equal(t, "user-42", body["id"])
				require.Equal(t, true, body["expires"])
				return
			}
			require.Equal(t, c.message, body["message"])
		})
	}
}

func TestGracefulTracker(t *testing.T) {
	seen := make(chan int64, 1)
	server := newTestServer(GracefulTracker())
	server.GET("/", func(c *gin.Context) {
		seen <- graceful.InFlight()
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusNoContent, w.Code)
	require.GreaterOrEqual(t, <-seen, int64(1))
	require.Zero(t, graceful.InFlight())
}
