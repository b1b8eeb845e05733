// exposes a Store interface that handlers and the render cycle depend
// on instead of the package-level query functions
package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/inkwell-labs/inkwell/internal/model"
)

type Store interface {
	// devices
	CreateDevice(name, macAddress string, refreshRate int) (model.Device, error)
	GetDeviceByID(id int) (*model.Device, error)
	GetDeviceByAPIKey(apiKey string) (*model.Device, error)
	ListDevices() ([]model.Device, error)
	TouchDeviceSeen(id int, at time.Time) error
	CreateDeviceLog(deviceID int, message []byte) error

	// playlists
	CreatePlaylist(deviceID int, weekdays model.Weekday, refreshInterval int) (model.Playlist, error)
	ListPlaylistsForDevice(deviceID int) ([]model.Playlist, error)
	AddItemToPlaylist(playlistUUID string, pluginID, position, duration int) (model.PlaylistItem, error)
	GetPlaylistItem(itemUUID string) (*model.PlaylistItem, error)
	SetItemLastDisplayed(itemUUID string, at time.Time) error

	// plugins
	CreatePlugin(name, description, source string, config []byte) (model.Plugin, error)
	GetPluginByID(id int) (*model.Plugin, error)
	ListPluginSources() ([]string, error)

	// screens
	CreateScreen(deviceID int, html string, itemUUID *uuid.UUID) (int, error)
	MarkScreenGenerated(screenID int, image []byte) error
	LatestScreenForDevice(deviceID int) (*model.Screen, error)
	GetScreenByID(screenID int) (*model.Screen, error)
	DeleteScreensOlderThan(cutoff time.Time) (int64, error)
}

type pgStore struct{}

// compile-time check that pgStore implements Store
var _ Store = (*pgStore)(nil)

func NewStore() Store {
	return &pgStore{}
}

func (*pgStore) CreateDevice(name, mac string, refreshRate int) (model.Device, error) {
	return CreateDevice(name, mac, refreshRate)
}
func (*pgStore) GetDeviceByID(id int) (*model.Device, error) { return GetDeviceByID(id) }
func (*pgStore) GetDeviceByAPIKey(key string) (*model.Device, error) {
	return GetDeviceByAPIKey(key)
}
func (*pgStore) ListDevices() ([]model.Device, error)         { return ListDevices() }
func (*pgStore) TouchDeviceSeen(id int, at time.Time) error   { return TouchDeviceSeen(id, at) }
func (*pgStore) CreateDeviceLog(id int, message []byte) error { return CreateDeviceLog(id, message) }

func (*pgStore) CreatePlaylist(deviceID int, weekdays model.Weekday, refreshInterval int) (model.Playlist, error) {
	return CreatePlaylist(deviceID, weekdays, refreshInterval)
}
func (*pgStore) ListPlaylistsForDevice(deviceID int) ([]model.Playlist, error) {
	return ListPlaylistsForDevice(deviceID)
}
func (*pgStore) AddItemToPlaylist(playlistUUID string, pluginID, position, duration int) (model.PlaylistItem, error) {
	return AddItemToPlaylist(playlistUUID, pluginID, position, duration)
}
func (*pgStore) GetPlaylistItem(itemUUID string) (*model.PlaylistItem, error) {
	return GetPlaylistItem(itemUUID)
}
func (*pgStore) SetItemLastDisplayed(itemUUID string, at time.Time) error {
	return SetItemLastDisplayed(itemUUID, at)
}

func (*pgStore) CreatePlugin(name, description, source string, config []byte) (model.Plugin, error) {
	return CreatePlugin(name, description, source, config)
}
func (*pgStore) GetPluginByID(id int) (*model.Plugin, error) { return GetPluginByID(id) }
func (*pgStore) ListPluginSources() ([]string, error)        { return ListPluginSources() }

func (*pgStore) CreateScreen(deviceID int, html string, itemUUID *uuid.UUID) (int, error) {
	return CreateScreen(deviceID, html, itemUUID)
}
func (*pgStore) MarkScreenGenerated(screenID int, image []byte) error {
	return MarkScreenGenerated(screenID, image)
}
func (*pgStore) LatestScreenForDevice(deviceID int) (*model.Screen, error) {
	return LatestScreenForDevice(deviceID)
}
func (*pgStore) GetScreenByID(screenID int) (*model.Screen, error) {
	return GetScreenByID(screenID)
}
func (*pgStore) DeleteScreensOlderThan(cutoff time.Time) (int64, error) {
	return DeleteScreensOlderThan(cutoff)
}
