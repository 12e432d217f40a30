// Package core holds the common response writer shared by all handlers.
package core

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kestrad/planchette/pkg/errorx"
	"github.com/kestrad/planchette/pkg/logger"
)

// ErrResponse is the error body returned to clients. Reference is omitted
// when no document describes the error.
type ErrResponse struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Reference string `json:"reference,omitempty"`
}

// WriteResponse writes either the error mapped through its registered
// coder, or the data with 200.
func WriteResponse(c *gin.Context, err error, data interface{}) {
	if err != nil {
		logger.Warn("%#+v", err)
		coder := errorx.ParseCoder(err)
		c.JSON(coder.HTTPStatus(), ErrResponse{
			Code:      coder.Code(),
			Message:   coder.String(),
			Reference: coder.Reference(),
		})
		return
	}

	c.JSON(http.StatusOK, data)
}
