package model

import (
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Plugin is a configured content source. Source is a stable registry
// identifier resolved against the sources registered at startup, not
// a code path looked up at call time.
type Plugin struct {
	ID          int            `db:"id"          json:"id"`
	Name        string         `db:"name"        json:"name"`
	Description string         `db:"description" json:"description"`
	Source      string         `db:"source"      json:"source"`
	Config      types.JSONText `db:"config"      json:"config"`
	CreatedAt   time.Time      `db:"created_at"  json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"  json:"updated_at"`
}

// ConfigMap decodes the JSON config column. A missing or empty column
// yields an empty map.
func (p *Plugin) ConfigMap() (map[string]any, error) {
	if len(p.Config) == 0 {
		return map[string]any{}, nil
	}
	var out map[string]any
	if err := json.Unmarshal(p.Config, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}
