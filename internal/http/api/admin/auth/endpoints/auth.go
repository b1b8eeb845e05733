package endpoints

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/inkwell-labs/inkwell/internal/auth"
	"github.com/inkwell-labs/inkwell/internal/http/api"
	"github.com/inkwell-labs/inkwell/internal/http/api/admin/auth/packets"
	"github.com/inkwell-labs/inkwell/internal/http/middleware"
)

// AuthPublicModule mounts the public admin login endpoint.
func AuthPublicModule(jwtSecret, passwordHash string) api.Module {
	ctl := &AccountManager{jwtSecret: jwtSecret, passwordHash: passwordHash}
	return api.ModuleFunc(func(c *api.Controller) {
		c.Group.POST("/auth/login", ctl.adminLogin)
	})
}

type AccountManager struct {
	jwtSecret    string
	passwordHash string
}

// POST /api/admin/auth/login
func (a *AccountManager) adminLogin(ctx *gin.Context) {
	var request packets.LoginRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !auth.CheckPassword(a.passwordHash, request.Password) {
		log.Warn().Msg("[auth] admin login rejected")
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": auth.ErrInvalidCredentials.Error()})
		return
	}

	token, err := middleware.GenerateJWT(a.jwtSecret)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "could not sign token"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"token": token})
}
