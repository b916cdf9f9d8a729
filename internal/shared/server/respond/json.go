package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const textContentType = "text/plain; charset=utf-8"

// JSON writes a JSON response with the given status.
func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

// OK writes a 200 OK JSON response.
func OK(c *gin.Context, payload any) {
	JSON(c, http.StatusOK, payload)
}

// Text writes UTF-8 plain text exactly as given.
func Text(c *gin.Context, status int, body string) {
	c.Data(status, textContentType, []byte(body))
}
