package db

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/inkwell-labs/inkwell/internal/model"
)

const screenColumns = `id, device_id, html, image, generated, playlist_item_uuid, created_at`

// CreateScreen inserts an ungenerated screen row. The image payload
// arrives later via MarkScreenGenerated; a row that never gets one is
// reaped by the retention sweep.
func CreateScreen(deviceID int, html string, itemUUID *uuid.UUID) (int, error) {
	var id int
	const q = `
	INSERT INTO screens (device_id, html, generated, playlist_item_uuid, created_at)
	VALUES ($1, $2, false, $3, now())
	RETURNING id;`
	if err := DB.Get(&id, q, deviceID, html, itemUUID); err != nil {
		log.Error().Err(err).Int("device_id", deviceID).Msg("[db] CreateScreen failed")
		return 0, err
	}
	return id, nil
}

// MarkScreenGenerated flips a screen to generated exactly once. A
// generated screen is never written again.
func MarkScreenGenerated(screenID int, image []byte) error {
	_, err := DB.Exec(`
		UPDATE screens
		   SET image = $2, generated = true
		 WHERE id = $1 AND generated = false;`, screenID, image)
	if err != nil {
		log.Error().Err(err).Int("screen_id", screenID).Msg("[db] MarkScreenGenerated failed")
	}
	return err
}

// LatestScreenForDevice returns the most recently created screen for
// the device, generated or not, or nil when the device has none.
func LatestScreenForDevice(deviceID int) (*model.Screen, error) {
	var s model.Screen
	const q = `
	SELECT ` + screenColumns + `
	  FROM screens
	 WHERE device_id = $1
	 ORDER BY created_at DESC, id DESC
	 LIMIT 1;`
	if err := DB.Get(&s, q, deviceID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		log.Error().Err(err).Int("device_id", deviceID).Msg("[db] LatestScreenForDevice failed")
		return nil, err
	}
	return &s, nil
}

func GetScreenByID(screenID int) (*model.Screen, error) {
	var s model.Screen
	const q = `SELECT ` + screenColumns + ` FROM screens WHERE id = $1;`
	if err := DB.Get(&s, q, screenID); err != nil {
		log.Error().Err(err).Int("screen_id", screenID).Msg("[db] GetScreenByID failed")
		return nil, err
	}
	return &s, nil
}

func DeleteScreensOlderThan(cutoff time.Time) (int64, error) {
	res, err := DB.Exec(`DELETE FROM screens WHERE created_at < $1;`, cutoff)
	if err != nil {
		log.Error().Err(err).Time("cutoff", cutoff).Msg("[db] DeleteScreensOlderThan failed")
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}
