package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/wms-platform/inventory-ops-service/pkg/errors"
	"github.com/wms-platform/inventory-ops-service/pkg/logging"
)

// errorResponse is the JSON body returned for failed requests.
type errorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// ErrorHandler translates errors attached to the gin context into the
// service's error envelope. Handlers call c.Error(err) and return.
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		appErr := apperrors.FromError(err)

		log := logging.WithContext(c.Request.Context(), logger)
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			log.Error("request failed",
				slog.String("code", string(appErr.Code)),
				slog.String("error", err.Error()),
			)
		} else {
			log.Warn("request rejected",
				slog.String("code", string(appErr.Code)),
				slog.String("error", appErr.Message),
			)
		}

		c.JSON(appErr.HTTPStatus, errorResponse{
			Code:      string(appErr.Code),
			Message:   appErr.Message,
			Details:   appErr.Details,
			Retryable: appErr.Retryable,
		})
	}
}
