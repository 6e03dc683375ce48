package controller

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gmw "github.com/Laisky/gin-middlewares/v6"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/apiprobe/apiprobe/common/jwtauth"
	"github.com/apiprobe/apiprobe/common/logger"
	"github.com/apiprobe/apiprobe/common/random"
	"github.com/apiprobe/apiprobe/engine"
	"github.com/apiprobe/apiprobe/middleware"
	"github.com/apiprobe/apiprobe/model"
)

func init() {
	gin.SetMode(gin.TestMode)
	SetExecutor(engine.New(&http.Client{}, 5*time.Second))
}

func newTestServer() *gin.Engine {
	server := gin.New()
	server.Use(
		gmw.NewLoggerMiddleware(gmw.WithLogger(logger.Logger.Named("test"))),
		middleware.RequestId(),
		middleware.PanicRecover(),
	)
	server.GET("/api/health", GetHealth)
	server.POST("/api/fetch", Fetch)
	server.POST("/requests/:id/execute", middleware.UserAuth(), ExecuteStoredRequest)
	return server
}

func setupTestDB(t *testing.T) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", random.GetUUID())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&model.StoredRequest{}))

	original := model.DB
	model.DB = gdb
	t.Cleanup(func() {
		model.DB = original
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
}

func doJSON(t *testing.T, server *gin.Engine, method, path string, payload any, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var body bytes.Buffer
	switch p := payload.(type) {
	case nil:
	case string:
		body.WriteString(p)
	default:
		require.NoError(t, json.NewEncoder(&body).Encode(p))
	}

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}

func issueToken(t *testing.T, userId string) string {
	t.Helper()
	token, err := jwtauth.IssueToken(userId, time.Hour)
	require.NoError(t, err)
	return token
}
