package packets

import "encoding/json"

// REQUESTS FOR /api/v1/*

// LogRequest carries a batch of firmware log entries. The device sends
// an arbitrary JSON document, kept verbatim for later inspection.
type LogRequest struct {
	LogsArray json.RawMessage `json:"logs_array" binding:"required"`
}
