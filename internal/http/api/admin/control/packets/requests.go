package packets

import "encoding/json"

type CreateDeviceRequest struct {
	Name        string `json:"name" binding:"required"`
	MACAddress  string `json:"mac_address" binding:"required"`
	RefreshRate int    `json:"refresh_rate"`
}

type CreatePlaylistRequest struct {
	Weekdays        int `json:"weekdays"`
	RefreshInterval int `json:"refresh_interval"`
}

type AddPlaylistItemRequest struct {
	PluginID int `json:"plugin_id" binding:"required"`
	Position int `json:"position"`
	Duration int `json:"duration" binding:"required"` // seconds
}

type CreatePluginRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Source      string          `json:"source" binding:"required"`
	Config      json.RawMessage `json:"config"`
}
