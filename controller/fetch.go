package controller

import (
	"net/http"

	"github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v6"
	"github.com/Laisky/zap"
	"github.com/gin-gonic/gin"

	"github.com/apiprobe/apiprobe/dto"
	"github.com/apiprobe/apiprobe/engine"
	"github.com/apiprobe/apiprobe/middleware"
	"github.com/apiprobe/apiprobe/monitor"
)

// Fetch executes an arbitrary request and returns the full result, including typed errors.
// The response status mirrors the execution's status code, except for codes that
// forbid a body, which are sent as 200.
func Fetch(c *gin.Context) {
	lg := gmw.GetLogger(c)

	var req dto.FetchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, dto.ValidationErrorResponse{Detail: "invalid request body: " + err.Error()})
		return
	}

	desc, err := engine.Normalize(req.ToRaw())
	if err != nil {
		var verr *engine.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusUnprocessableEntity, dto.ValidationErrorResponse{Detail: verr.Error()})
			return
		}
		middleware.AbortWithError(c, http.StatusInternalServerError, errors.Wrap(err, "normalize fetch request"))
		return
	}

	res := getExecutor().Execute(gmw.Ctx(c), desc, engine.ModePassThrough)
	monitor.RecordExecution(res)

	if res.Error != nil {
		lg.Info("fetch failed",
			zap.String("url", res.RequestEcho.URL),
			zap.String("error_type", res.Error.ErrorType),
			zap.Int("status", res.StatusCode))
	}
	status := res.StatusCode
	if !bodyAllowedForStatus(status) {
		// the result would be dropped on the wire, status_code still carries the real code
		status = http.StatusOK
	}
	c.JSON(status, dto.NewFetchResponse(res))
}

// bodyAllowedForStatus mirrors net/http: 1xx, 204 and 304 responses cannot carry a body.
func bodyAllowedForStatus(status int) bool {
	switch {
	case status >= 100 && status <= 199:
		return false
	case status == http.StatusNoContent, status == http.StatusNotModified:
		return false
	}
	return true
}
