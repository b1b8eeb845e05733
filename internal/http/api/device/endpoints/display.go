package endpoints

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/inkwell-labs/inkwell/internal/db"
	"github.com/inkwell-labs/inkwell/internal/http/api/device/packets"
	"github.com/inkwell-labs/inkwell/internal/http/middleware"
	"github.com/inkwell-labs/inkwell/internal/schedule"
)

// DeviceController serves the endpoints a polling e-paper device hits.
type DeviceController struct {
	store     db.Store
	scheduler *schedule.Scheduler
	baseURL   string
}

func NewDeviceController(store db.Store, scheduler *schedule.Scheduler, baseURL string) *DeviceController {
	return &DeviceController{
		store:     store,
		scheduler: scheduler,
		baseURL:   strings.TrimRight(baseURL, "/"),
	}
}

func RegisterDeviceRoutes(r gin.IRoutes, store db.Store, scheduler *schedule.Scheduler, baseURL string) {
	ctl := NewDeviceController(store, scheduler, baseURL)
	r.GET("/display", ctl.getDisplay)
	r.GET("/media/:filename", ctl.getMedia)
	r.POST("/log", ctl.postLog)
}

// GET /api/v1/display
func (d *DeviceController) getDisplay(c *gin.Context) {
	device, ok := middleware.GetCurrentDevice(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	now := time.Now().UTC()
	if err := d.store.TouchDeviceSeen(device.ID, now); err != nil {
		log.Error().Err(err).Int("device_id", device.ID).Msg("[device] failed to record poll")
	} else {
		// The scheduler's expiry math must see this poll's timestamp,
		// not the one loaded with the auth lookup.
		device.LastSeenAt = &now
		device.Refreshes++
	}

	resp := packets.DisplayResponse{
		Status:      http.StatusOK,
		RefreshRate: device.RefreshRate,
	}

	screen, err := d.store.LatestScreenForDevice(device.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load screen"})
		return
	}
	if screen != nil && screen.Generated {
		filename := screen.Filename(device.FriendlyID)
		resp.Filename = filename
		resp.ImageURL = fmt.Sprintf("%s/api/v1/media/%s", d.baseURL, filename)
		resp.UpdateScreen = true
	}

	// every poll re-arms the deferred render for this device
	if err := d.scheduler.Schedule(c.Request.Context(), device, now); err != nil {
		log.Error().Err(err).Int("device_id", device.ID).Msg("[device] failed to schedule next render")
	}

	c.JSON(http.StatusOK, resp)
}

// GET /api/v1/media/:filename
func (d *DeviceController) getMedia(c *gin.Context) {
	device, ok := middleware.GetCurrentDevice(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	friendlyID, screenID, err := parseScreenFilename(c.Param("filename"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filename"})
		return
	}
	if friendlyID != device.FriendlyID {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	screen, err := d.store.GetScreenByID(screenID)
	if err != nil || screen == nil || screen.DeviceID != device.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": "screen not found"})
		return
	}
	if !screen.Generated || len(screen.Image) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "screen not generated yet"})
		return
	}

	c.Data(http.StatusOK, "image/bmp", screen.Image)
}

// POST /api/v1/log
func (d *DeviceController) postLog(c *gin.Context) {
	device, ok := middleware.GetCurrentDevice(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req packets.LogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := d.store.CreateDeviceLog(device.ID, req.LogsArray); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store log"})
		return
	}
	c.Status(http.StatusNoContent)
}

// parseScreenFilename splits "FRIENDLY-<screenID>.bmp" into its parts.
// Friendly IDs may themselves contain dashes, so split on the last one.
func parseScreenFilename(name string) (string, int, error) {
	base, ok := strings.CutSuffix(name, ".bmp")
	if !ok {
		return "", 0, fmt.Errorf("unexpected extension on %q", name)
	}
	idx := strings.LastIndex(base, "-")
	if idx <= 0 || idx == len(base)-1 {
		return "", 0, fmt.Errorf("malformed screen filename %q", name)
	}
	screenID, err := strconv.Atoi(base[idx+1:])
	if err != nil {
		return "", 0, fmt.Errorf("malformed screen id in %q: %w", name, err)
	}
	return base[:idx], screenID, nil
}
