// Package httperr defines the error envelope the HTTP layer returns.
package httperr

import (
	"github.com/gin-gonic/gin"
)

// Response is the JSON body of every failed request. Status travels as
// the HTTP code, not in the body.
type Response struct {
	Status int `json:"-"`
	Error  struct {
		Message string `json:"message"`
	} `json:"error"`
	Detail any `json:"detail,omitempty"`
}

// AbortWithError stops the handler chain and writes a structured error
// body. msg and detail are what the client sees; err stays on the gin
// error stack for request logging and the error middleware.
func AbortWithError(c *gin.Context, status int, err error, msg string, detail any) {
	if err == nil {
		panic("httperr: AbortWithError requires a non-nil error")
	}

	resp := Response{Status: status}
	resp.Error.Message = msg
	resp.Detail = detail

	_ = c.Error(gin.Error{
		Err:  err,
		Type: gin.ErrorTypePublic,
		Meta: resp,
	})
	c.AbortWithStatusJSON(status, resp)
}
