package utils

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/practice-app/apperror"
)

type JSONResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, err error) {
	c.JSON(code, JSONResponse{
		Status:  false,
		Message: err.Error(),
		Data:    nil,
	})
}

// RespondServiceError answers with the status matching err's kind. Errors
// outside the taxonomy are logged and hidden behind a generic 500.
func RespondServiceError(c *gin.Context, err error) {
	code := apperror.HTTPStatus(err)
	if apperror.KindOf(err) == "" {
		ErrorLogger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).Errorf("unhandled error: %v", err)
		RespondError(c, code, errors.New("internal server error"))
		return
	}
	RespondError(c, code, err)
}
