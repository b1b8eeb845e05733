package model

import (
	"fmt"
	"regexp"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Device is one physical e-paper display polling the server.
type Device struct {
	ID          int        `db:"id"            json:"id"`
	FriendlyID  string     `db:"friendly_id"   json:"friendly_id"`
	Name        string     `db:"name"          json:"name"`
	MACAddress  string     `db:"mac_address"   json:"mac_address"`
	APIKey      string     `db:"api_key"       json:"-"`
	RefreshRate int        `db:"refresh_rate"  json:"refresh_rate"`
	Refreshes   int        `db:"refreshes"     json:"refreshes"`
	LastSeenAt  *time.Time `db:"last_seen_at"  json:"last_seen_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at"    json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"    json:"updated_at"`
}

var macPattern = regexp.MustCompile(`^([0-9A-F]{2}[:-]){5}[0-9A-F]{2}$`)

// ValidateMAC checks an uppercased colon- or dash-separated MAC address.
func ValidateMAC(mac string) error {
	if !macPattern.MatchString(mac) {
		return fmt.Errorf("invalid MAC address format: %q", mac)
	}
	return nil
}

// DeviceLog is a telemetry payload reported by a device on poll.
type DeviceLog struct {
	ID        int            `db:"id"         json:"id"`
	DeviceID  int            `db:"device_id"  json:"device_id"`
	Message   types.JSONText `db:"message"    json:"message"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}
