package endpoints

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/inkwell-labs/inkwell/internal/db"
	"github.com/inkwell-labs/inkwell/internal/http/api"
	"github.com/inkwell-labs/inkwell/internal/http/api/admin/control/packets"
	"github.com/inkwell-labs/inkwell/internal/model"
	"github.com/inkwell-labs/inkwell/internal/plugins"
)

type ControlController struct {
	store    db.Store
	registry *plugins.Registry
}

func newControlController(store db.Store, registry *plugins.Registry) *ControlController {
	return &ControlController{store: store, registry: registry}
}

// ControlModule mounts the authenticated fleet-management endpoints.
func ControlModule(store db.Store, registry *plugins.Registry) api.Module {
	ctl := newControlController(store, registry)
	return api.ModuleFunc(func(c *api.Controller) {
		c.Group.GET("/devices", ctl.listDevices)
		c.Group.POST("/devices", ctl.createDevice)
		c.Group.GET("/devices/:id", ctl.getDevice)
		c.Group.GET("/devices/:id/playlists", ctl.listPlaylists)
		c.Group.POST("/devices/:id/playlists", ctl.createPlaylist)
		c.Group.GET("/devices/:id/screens/latest", ctl.latestScreen)

		c.Group.POST("/playlists/:uuid/items", ctl.addItem)

		c.Group.POST("/plugins", ctl.createPlugin)
		c.Group.GET("/plugins/sources", ctl.listSources)
	})
}

func mapDevice(d model.Device, includeKey bool) packets.DeviceResponse {
	resp := packets.DeviceResponse{
		ID:          d.ID,
		FriendlyID:  d.FriendlyID,
		Name:        d.Name,
		MACAddress:  d.MACAddress,
		RefreshRate: d.RefreshRate,
		Refreshes:   d.Refreshes,
		CreatedAt:   d.CreatedAt.Format(time.RFC3339),
	}
	if includeKey {
		resp.APIKey = d.APIKey
	}
	if d.LastSeenAt != nil {
		resp.LastSeenAt = d.LastSeenAt.Format(time.RFC3339)
	}
	return resp
}

// GET /api/admin/devices
func (t *ControlController) listDevices(c *gin.Context) {
	all, err := t.store.ListDevices()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list devices"})
		return
	}
	out := make([]packets.DeviceResponse, 0, len(all))
	for _, d := range all {
		out = append(out, mapDevice(d, false))
	}
	c.JSON(http.StatusOK, out)
}

// POST /api/admin/devices
func (t *ControlController) createDevice(c *gin.Context) {
	var req packets.CreateDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	device, err := t.store.CreateDevice(req.Name, req.MACAddress, req.RefreshRate)
	if err != nil {
		log.Error().Err(err).Str("mac", req.MACAddress).Msg("[admin] could not create device")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, mapDevice(device, true))
}

// GET /api/admin/devices/:id
func (t *ControlController) getDevice(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	device, err := t.store.GetDeviceByID(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
		return
	}
	c.JSON(http.StatusOK, mapDevice(*device, false))
}

// GET /api/admin/devices/:id/playlists
func (t *ControlController) listPlaylists(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	playlists, err := t.store.ListPlaylistsForDevice(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list playlists"})
		return
	}
	c.JSON(http.StatusOK, playlists)
}

// POST /api/admin/devices/:id/playlists
func (t *ControlController) createPlaylist(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	if _, err := t.store.GetDeviceByID(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
		return
	}

	var req packets.CreatePlaylistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	playlist, err := t.store.CreatePlaylist(id, model.Weekday(req.Weekdays), req.RefreshInterval)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create playlist"})
		return
	}
	c.JSON(http.StatusCreated, playlist)
}

// GET /api/admin/devices/:id/screens/latest
func (t *ControlController) latestScreen(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	screen, err := t.store.LatestScreenForDevice(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load screen"})
		return
	}
	if screen == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no screen for device"})
		return
	}

	resp := packets.ScreenResponse{
		ID:        screen.ID,
		DeviceID:  screen.DeviceID,
		Generated: screen.Generated,
		CreatedAt: screen.CreatedAt.Format(time.RFC3339),
	}
	if screen.PlaylistItemUUID != nil {
		resp.PlaylistItemUUID = screen.PlaylistItemUUID.String()
	}
	if screen.Generated {
		resp.Content = screen.ImageAsBase64()
	}
	c.JSON(http.StatusOK, resp)
}

// POST /api/admin/playlists/:uuid/items
func (t *ControlController) addItem(c *gin.Context) {
	playlistUUID := c.Param("uuid")

	var req packets.AddPlaylistItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := t.store.GetPluginByID(req.PluginID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "plugin not found"})
		return
	}

	item, err := t.store.AddItemToPlaylist(playlistUUID, req.PluginID, req.Position, req.Duration)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not add item"})
		return
	}
	c.JSON(http.StatusCreated, item)
}

// POST /api/admin/plugins
func (t *ControlController) createPlugin(c *gin.Context) {
	var req packets.CreatePluginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Reject sources the registry cannot serve instead of storing a
	// row that will fail every render.
	if _, ok := t.registry.Get(req.Source); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown content source: " + req.Source})
		return
	}

	config := req.Config
	if len(config) == 0 {
		config = []byte(`{}`)
	}
	plugin, err := t.store.CreatePlugin(req.Name, req.Description, req.Source, config)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create plugin"})
		return
	}
	c.JSON(http.StatusCreated, plugin)
}

// GET /api/admin/plugins/sources
func (t *ControlController) listSources(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sources": t.registry.IDs()})
}
