package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/patron/pkg/apperror"
	"github.com/fatflowers/patron/pkg/logctx"
	"github.com/fatflowers/patron/pkg/response"
)

// fail writes the public envelope for err. The validation reason is logged
// and never echoed.
func fail(c *gin.Context, base *zap.SugaredLogger, err error) {
	log := logctx.FromGin(c, base)
	if ve, ok := apperror.AsValidation(err); ok {
		log.Infow("request_rejected", "path", c.FullPath(), "field", ve.Field, "reason", ve.Reason)
	} else {
		log.Errorw("request_failed", "path", c.FullPath(), "error", err)
	}
	status, body := response.FromError(err)
	c.JSON(status, body)
}

// bindJSON decodes the body into req. Malformed JSON is a validation error on
// the body.
func bindJSON(c *gin.Context, base *zap.SugaredLogger, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		if !apperror.IsValidation(err) {
			err = apperror.Validation("body", err.Error())
		}
		fail(c, base, err)
		return false
	}
	return true
}

func ok[T any](c *gin.Context, data T) {
	c.JSON(http.StatusOK, response.OK(data))
}
