package handler

import (
	"net/http"

	"kiosk-inventory/internal/model"

	"github.com/gin-gonic/gin"
)

func BindJson(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return err
	}
	return nil
}

func BindQuery(c *gin.Context, obj interface{}) error {
	if err := c.ShouldBindQuery(obj); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return err
	}
	return nil
}

// ActorFromHeaders reads the acting user from request headers. The auth layer
// in front of this service resolves the session and forwards identity; the
// core trusts the caller rather than deriving it itself.
func ActorFromHeaders(c *gin.Context) model.Actor {
	return model.Actor{
		ID:   c.GetHeader("X-Actor-Id"),
		Name: c.GetHeader("X-Actor-Name"),
	}
}
