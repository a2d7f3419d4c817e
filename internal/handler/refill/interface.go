package refill

import "github.com/gin-gonic/gin"

type IHandler interface {
	Refill(c *gin.Context)
	Confirm(c *gin.Context)
	Cancel(c *gin.Context)
}
