package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/inkwell-labs/inkwell/internal/db"
	"github.com/inkwell-labs/inkwell/internal/http/api"
	authapi "github.com/inkwell-labs/inkwell/internal/http/api/admin/auth/endpoints"
	adminapi "github.com/inkwell-labs/inkwell/internal/http/api/admin/control/endpoints"
	previewapi "github.com/inkwell-labs/inkwell/internal/http/api/admin/preview/endpoints"
	deviceapi "github.com/inkwell-labs/inkwell/internal/http/api/device/endpoints"
	"github.com/inkwell-labs/inkwell/internal/http/middleware"
	"github.com/inkwell-labs/inkwell/internal/plugins"
	"github.com/inkwell-labs/inkwell/internal/render"
	"github.com/inkwell-labs/inkwell/internal/schedule"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes(
	r *gin.Engine,
	env Environment,
	store db.Store,
	scheduler *schedule.Scheduler,
	registry *plugins.Registry,
	engine *render.Engine,
	encoder *render.Encoder,
) {
	// CORS
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods: []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
			"HEAD",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Authorization",
			"Accept",
			"Access-Token",
		},
		ExposeHeaders: []string{
			"Content-Length",
		},
		AllowCredentials: false,
	}))

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api/admin",
		Auth:   false,
	},
		authapi.AuthPublicModule(env.SecretKey, env.AdminPassword),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api/admin",
		Auth:      true,
		SecretKey: env.SecretKey,
	},
		adminapi.ControlModule(store, registry),
		previewapi.PreviewModule(engine, encoder),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix:     "/api/v1",
		Middleware: []gin.HandlerFunc{middleware.DeviceAuth(store)},
	},
		api.ModuleFunc(func(c *api.Controller) {
			deviceapi.RegisterDeviceRoutes(c.Group, store, scheduler, env.PublicURL)
		}),
	)
}
