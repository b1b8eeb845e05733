package db

import (
	"github.com/rs/zerolog/log"

	"github.com/inkwell-labs/inkwell/internal/model"
)

const pluginColumns = `id, name, description, source, config, created_at, updated_at`

func GetPluginByID(id int) (*model.Plugin, error) {
	var p model.Plugin
	const q = `SELECT ` + pluginColumns + ` FROM plugins WHERE id = $1;`
	if err := DB.Get(&p, q, id); err != nil {
		log.Error().Err(err).Int("plugin_id", id).Msg("[db] GetPluginByID failed")
		return nil, err
	}
	return &p, nil
}

func CreatePlugin(name, description, source string, config []byte) (model.Plugin, error) {
	var p model.Plugin
	const q = `
	INSERT INTO plugins (name, description, source, config, created_at, updated_at)
	VALUES ($1, $2, $3, $4, now(), now())
	RETURNING ` + pluginColumns + `;`
	if err := DB.Get(&p, q, name, description, source, config); err != nil {
		log.Error().Err(err).Str("name", name).Msg("[db] CreatePlugin failed")
		return model.Plugin{}, err
	}
	return p, nil
}

// ListPluginSources returns the distinct source identifiers stored on
// plugin rows, for startup validation against the registry.
func ListPluginSources() ([]string, error) {
	var out []string
	const q = `SELECT DISTINCT source FROM plugins ORDER BY source;`
	if err := DB.Select(&out, q); err != nil {
		log.Error().Err(err).Msg("[db] ListPluginSources failed")
		return nil, err
	}
	return out, nil
}
