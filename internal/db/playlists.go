package db

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/inkwell-labs/inkwell/internal/model"
)

const playlistColumns = `uuid, device_id, is_active, weekdays, active_from, active_to, refresh_interval, created_at, updated_at`
const itemColumns = `uuid, playlist_uuid, position, is_active, plugin_id, duration, last_displayed_at, created_at, updated_at`

func CreatePlaylist(deviceID int, weekdays model.Weekday, refreshInterval int) (model.Playlist, error) {
	if refreshInterval <= 0 {
		refreshInterval = 900
	}
	var p model.Playlist
	const q = `
	INSERT INTO playlists (uuid, device_id, is_active, weekdays, refresh_interval, created_at, updated_at)
	VALUES ($1, $2, true, $3, $4, now(), now())
	RETURNING ` + playlistColumns + `;`
	if err := DB.Get(&p, q, uuid.New(), deviceID, int(weekdays), refreshInterval); err != nil {
		log.Error().Err(err).Msg("[db] CreatePlaylist: failed to insert playlist")
		return model.Playlist{}, err
	}
	return p, nil
}

// ListPlaylistsForDevice returns the device's playlists in stable
// (uuid) order with their items loaded in (position, uuid) order.
func ListPlaylistsForDevice(deviceID int) ([]model.Playlist, error) {
	var out []model.Playlist
	const q = `
	SELECT ` + playlistColumns + `
	  FROM playlists
	 WHERE device_id = $1
	 ORDER BY uuid;`
	if err := DB.Select(&out, q, deviceID); err != nil {
		log.Error().Err(err).Int("device_id", deviceID).Msg("[db] ListPlaylistsForDevice failed")
		return nil, err
	}

	for i := range out {
		items, err := ListPlaylistItems(out[i].UUID.String())
		if err != nil {
			return nil, err
		}
		out[i].Items = items
	}
	return out, nil
}

func ListPlaylistItems(playlistUUID string) ([]model.PlaylistItem, error) {
	var list []model.PlaylistItem
	const q = `
	SELECT ` + itemColumns + `
	  FROM playlist_items
	 WHERE playlist_uuid = $1
	 ORDER BY position, uuid;`
	if err := DB.Select(&list, q, playlistUUID); err != nil {
		log.Error().Err(err).Str("playlist", playlistUUID).Msg("[db] ListPlaylistItems failed")
		return nil, err
	}
	return list, nil
}

func AddItemToPlaylist(playlistUUID string, pluginID, position, duration int) (model.PlaylistItem, error) {
	var it model.PlaylistItem
	const q = `
	INSERT INTO playlist_items (uuid, playlist_uuid, position, is_active, plugin_id, duration, created_at, updated_at)
	VALUES ($1, $2, $3, true, $4, $5, now(), now())
	RETURNING ` + itemColumns + `;`
	if err := DB.Get(&it, q, uuid.New(), playlistUUID, position, pluginID, duration); err != nil {
		log.Error().Err(err).Msg("[db] AddItemToPlaylist failed")
		return model.PlaylistItem{}, err
	}
	return it, nil
}

func GetPlaylistItem(itemUUID string) (*model.PlaylistItem, error) {
	var it model.PlaylistItem
	const q = `SELECT ` + itemColumns + ` FROM playlist_items WHERE uuid = $1;`
	if err := DB.Get(&it, q, itemUUID); err != nil {
		log.Error().Err(err).Str("item", itemUUID).Msg("[db] GetPlaylistItem failed")
		return nil, err
	}
	return &it, nil
}

// SetItemLastDisplayed stamps rotation state after a successful
// render. Never called on a failed cycle.
func SetItemLastDisplayed(itemUUID string, at time.Time) error {
	_, err := DB.Exec(`
		UPDATE playlist_items
		   SET last_displayed_at = $2,
		       updated_at        = now()
		 WHERE uuid = $1;`, itemUUID, at)
	if err != nil {
		log.Error().Err(err).Str("item", itemUUID).Msg("[db] SetItemLastDisplayed failed")
	}
	return err
}
