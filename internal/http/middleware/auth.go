package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inkwell-labs/inkwell/internal/db"
	"github.com/inkwell-labs/inkwell/internal/model"
)

// DeviceAuth authenticates a polling device by its api_key (query
// parameter or Access-Token header, matching the firmware) and stores
// the device in the request context.
func DeviceAuth(store db.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.Query("api_key")
		if apiKey == "" {
			apiKey = c.GetHeader("Access-Token")
		}
		if apiKey == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing api key"})
			return
		}

		device, err := store.GetDeviceByAPIKey(apiKey)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown device"})
			return
		}
		c.Set("currentDevice", device)
		c.Next()
	}
}

// GetCurrentDevice retrieves the device set by DeviceAuth.
func GetCurrentDevice(c *gin.Context) (*model.Device, bool) {
	v, exists := c.Get("currentDevice")
	if !exists {
		return nil, false
	}
	device, ok := v.(*model.Device)
	return device, ok
}
