package packets

// RESPONSES FOR /api/admin/*

// DeviceResponse mirrors model.Device; the api_key is included only
// here, right after creation, so the operator can flash it onto the
// device.
type DeviceResponse struct {
	ID          int    `json:"id"`
	FriendlyID  string `json:"friendly_id"`
	Name        string `json:"name"`
	MACAddress  string `json:"mac_address"`
	APIKey      string `json:"api_key,omitempty"`
	RefreshRate int    `json:"refresh_rate"`
	Refreshes   int    `json:"refreshes"`
	LastSeenAt  string `json:"last_seen_at,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// ScreenResponse flattens a screen for the admin UI; the image travels
// as a data URL.
type ScreenResponse struct {
	ID               int    `json:"id"`
	DeviceID         int    `json:"device_id"`
	Generated        bool   `json:"generated"`
	PlaylistItemUUID string `json:"playlist_item_uuid,omitempty"`
	Content          string `json:"content,omitempty"`
	CreatedAt        string `json:"created_at"`
}
