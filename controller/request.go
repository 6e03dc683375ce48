package controller

import (
	"net/http"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v6"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/apiprobe/apiprobe/common/ctxkey"
	"github.com/apiprobe/apiprobe/dto"
	"github.com/apiprobe/apiprobe/engine"
	"github.com/apiprobe/apiprobe/middleware"
	"github.com/apiprobe/apiprobe/model"
	"github.com/apiprobe/apiprobe/monitor"
)

// ExecuteStoredRequest replays a request owned by the authenticated user.
// Any upstream response, 4xx and 5xx included, is reported with 200.
func ExecuteStoredRequest(c *gin.Context) {
	ctx := gmw.Ctx(c)
	userId := c.GetString(ctxkey.Id)
	lg := gmw.GetLogger(c).With(zap.String("user_id", userId))

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, errors.New("Invalid request id"))
		return
	}

	stored, err := model.CacheGetStoredRequest(ctx, id.String(), userId)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			middleware.AbortWithError(c, http.StatusNotFound, errors.New("Request not found"))
			return
		}
		middleware.AbortWithError(c, http.StatusInternalServerError, errors.Wrap(err, "load stored request"))
		return
	}

	desc, err := engine.NormalizeStored(stored.Definition())
	if err != nil {
		middleware.AbortWithError(c, http.StatusBadRequest, errors.Errorf("Failed to execute request: %s", err.Error()))
		return
	}

	res := getExecutor().Execute(ctx, desc, engine.ModeParseBody)
	monitor.RecordExecution(res)

	if !res.Exchanged() {
		lg.Info("stored request failed before an upstream response",
			zap.String("request_id", stored.Id),
			zap.String("error_type", res.Error.ErrorType))
		middleware.AbortWithError(c, http.StatusBadRequest, errors.Errorf("Failed to execute request: %s", res.Error.Message))
		return
	}

	c.JSON(http.StatusOK, dto.NewExecuteResponse(res))
}
