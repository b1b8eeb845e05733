package packets

// RESPONSES FOR /api/v1/*

// DisplayResponse is what a polling device receives. Field names match
// the firmware's expectations.
type DisplayResponse struct {
	Status       int    `json:"status"`
	ImageURL     string `json:"image_url"`
	Filename     string `json:"filename"`
	RefreshRate  int    `json:"refresh_rate"`
	UpdateScreen bool   `json:"update_screen"`
}
