package httpx

import "github.com/gin-gonic/gin"

// OK writes the standard success envelope.
func OK(c *gin.Context, code int, data any) {
	c.JSON(code, gin.H{"success": true, "data": data})
}

// Fail writes the standard error envelope.
func Fail(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"success": false, "message": message})
}
