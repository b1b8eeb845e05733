package model

import (
	"time"

	"github.com/google/uuid"
)

// Playlist is an ordered, schedule-gated collection of content items
// belonging to one device. Sibling playlists are walked in (device,
// uuid) order; the first active one wins.
type Playlist struct {
	UUID            uuid.UUID  `db:"uuid"             json:"uuid"`
	DeviceID        int        `db:"device_id"        json:"device_id"`
	IsActive        bool       `db:"is_active"        json:"is_active"`
	Weekdays        Weekday    `db:"weekdays"         json:"weekdays"`
	ActiveFrom      *time.Time `db:"active_from"      json:"active_from,omitempty"`
	ActiveTo        *time.Time `db:"active_to"        json:"active_to,omitempty"`
	RefreshInterval int        `db:"refresh_interval" json:"refresh_interval"`
	CreatedAt       time.Time  `db:"created_at"       json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"       json:"updated_at"`

	Items []PlaylistItem `db:"-" json:"items,omitempty"`
}

// PlaylistItem is one rotation slot referencing a content plugin.
// Position is not required to be unique; ties break on uuid.
type PlaylistItem struct {
	UUID            uuid.UUID  `db:"uuid"              json:"uuid"`
	PlaylistUUID    uuid.UUID  `db:"playlist_uuid"     json:"playlist_uuid"`
	Position        int        `db:"position"          json:"position"`
	IsActive        bool       `db:"is_active"         json:"is_active"`
	PluginID        int        `db:"plugin_id"         json:"plugin_id"`
	Duration        int        `db:"duration"          json:"duration"`
	LastDisplayedAt *time.Time `db:"last_displayed_at" json:"last_displayed_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at"        json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"        json:"updated_at"`
}
