package db

import (
	"crypto/rand"
	"database/sql"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/inkwell-labs/inkwell/internal/model"
)

const deviceColumns = `id, friendly_id, name, mac_address, api_key, refresh_rate, refreshes, last_seen_at, created_at, updated_at`

// CreateDevice registers a device, generating a friendly id and API
// key on the way in. The MAC address is uppercased and validated.
func CreateDevice(name, macAddress string, refreshRate int) (model.Device, error) {
	macAddress = strings.ToUpper(macAddress)
	if err := model.ValidateMAC(macAddress); err != nil {
		return model.Device{}, err
	}
	if refreshRate <= 0 {
		refreshRate = 900
	}

	var d model.Device
	const q = `
	INSERT INTO devices (friendly_id, name, mac_address, api_key, refresh_rate, refreshes, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, 0, now(), now())
	RETURNING ` + deviceColumns + `;`
	if err := DB.Get(&d, q, randomToken(6, friendlyAlphabet), name, macAddress, randomToken(32, keyAlphabet), refreshRate); err != nil {
		log.Error().Err(err).Msg("[db] CreateDevice: failed to insert device")
		return model.Device{}, err
	}
	return d, nil
}

func GetDeviceByID(id int) (*model.Device, error) {
	var d model.Device
	const q = `SELECT ` + deviceColumns + ` FROM devices WHERE id = $1;`
	if err := DB.Get(&d, q, id); err != nil {
		log.Error().Err(err).Int("device_id", id).Msg("[db] GetDeviceByID failed")
		return nil, err
	}
	return &d, nil
}

func GetDeviceByAPIKey(apiKey string) (*model.Device, error) {
	var d model.Device
	const q = `SELECT ` + deviceColumns + ` FROM devices WHERE api_key = $1;`
	if err := DB.Get(&d, q, apiKey); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Error().Err(err).Msg("[db] GetDeviceByAPIKey failed")
		}
		return nil, err
	}
	return &d, nil
}

func ListDevices() ([]model.Device, error) {
	var out []model.Device
	const q = `SELECT ` + deviceColumns + ` FROM devices ORDER BY id;`
	if err := DB.Select(&out, q); err != nil {
		log.Error().Err(err).Msg("[db] ListDevices failed")
		return nil, err
	}
	return out, nil
}

// TouchDeviceSeen stamps last_seen_at and bumps the poll counter.
func TouchDeviceSeen(id int, at time.Time) error {
	_, err := DB.Exec(`
		UPDATE devices
		   SET last_seen_at = $2,
		       refreshes    = refreshes + 1,
		       updated_at   = now()
		 WHERE id = $1;`, id, at)
	if err != nil {
		log.Error().Err(err).Int("device_id", id).Msg("[db] TouchDeviceSeen failed")
	}
	return err
}

func CreateDeviceLog(deviceID int, message []byte) error {
	_, err := DB.Exec(`
		INSERT INTO device_logs (device_id, message, created_at)
		VALUES ($1, $2, now());`, deviceID, message)
	if err != nil {
		log.Error().Err(err).Int("device_id", deviceID).Msg("[db] CreateDeviceLog failed")
	}
	return err
}

const (
	friendlyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	keyAlphabet      = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

func randomToken(n int, alphabet string) string {
	var b strings.Builder
	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			idx = big.NewInt(int64(i % len(alphabet)))
		}
		b.WriteByte(alphabet[idx.Int64()])
	}
	return b.String()
}
