package response

import (
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"

	appErrors "github.com/saufi-opi/mini-emr/pkg/errors"
)

// ErrorEnvelope is the body of every failed response.
type ErrorEnvelope struct {
	Error *appErrors.Error `json:"error"`
}

// Detail is a plain acknowledgement body.
type Detail struct {
	Detail string `json:"detail"`
}

// JSON writes the payload as-is with caching disabled.
func JSON(c *gin.Context, status int, data interface{}) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(status, data)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data)
}

// Error sends an error response converting the error to the common structure.
// Credential rejections carry a Bearer challenge; server errors are reported to Sentry.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	if appErr.Kind == appErrors.KindCredentialRejected {
		c.Header("WWW-Authenticate", "Bearer")
	}
	if appErr.Status >= http.StatusInternalServerError {
		_ = c.Error(err)
		sentry.CaptureException(err)
	}
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(appErr.Status, ErrorEnvelope{Error: appErr})
}

// Abort writes the error and stops the middleware chain.
func Abort(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}

// File streams a binary attachment.
func File(c *gin.Context, filename, contentType string, payload []byte) {
	c.Header("Cache-Control", "no-store")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, payload)
}
