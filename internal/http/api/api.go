package api

import (
	"github.com/gin-gonic/gin"
)

// Controller wraps the gin group a Module mounts its endpoints on.
type Controller struct {
	Group *gin.RouterGroup
}
