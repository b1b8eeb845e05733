package model

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Screen is one generated (or pending) display artifact for a device.
// It is created ungenerated and flips to generated exactly once when
// the render pipeline succeeds; the current screen for a device is
// always the most recently created row.
type Screen struct {
	ID               int        `db:"id"                 json:"id"`
	DeviceID         int        `db:"device_id"          json:"device_id"`
	HTML             string     `db:"html"               json:"html"`
	Image            []byte     `db:"image"              json:"-"`
	Generated        bool       `db:"generated"          json:"generated"`
	PlaylistItemUUID *uuid.UUID `db:"playlist_item_uuid" json:"playlist_item_uuid,omitempty"`
	CreatedAt        time.Time  `db:"created_at"         json:"created_at"`
}

// Filename is the name the device fetches the bitmap under.
func (s *Screen) Filename(deviceFriendlyID string) string {
	return fmt.Sprintf("%s-%d.bmp", deviceFriendlyID, s.ID)
}

// ImageAsBase64 returns the bitmap as a data URL for the preview UI.
func (s *Screen) ImageAsBase64() string {
	return "data:image/bmp;base64," + base64.StdEncoding.EncodeToString(s.Image)
}
