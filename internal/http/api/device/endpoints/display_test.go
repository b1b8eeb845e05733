package endpoints

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-labs/inkwell/internal/model"
	"github.com/inkwell-labs/inkwell/internal/schedule"
	"github.com/inkwell-labs/inkwell/internal/tasks"
)

// stubStore implements db.Store for handler tests; only the methods the
// device endpoints touch do real work.
type stubStore struct {
	device    *model.Device
	screen    *model.Screen
	playlists []model.Playlist
	item      *model.PlaylistItem
	touched   int
	logs      [][]byte
}

func (s *stubStore) CreateDevice(string, string, int) (model.Device, error) {
	return model.Device{}, errors.New("not implemented")
}
func (s *stubStore) GetDeviceByID(int) (*model.Device, error) { return s.device, nil }
func (s *stubStore) GetDeviceByAPIKey(key string) (*model.Device, error) {
	if s.device != nil && s.device.APIKey == key {
		return s.device, nil
	}
	return nil, errors.New("not found")
}
func (s *stubStore) ListDevices() ([]model.Device, error) { return nil, nil }
func (s *stubStore) TouchDeviceSeen(int, time.Time) error {
	s.touched++
	return nil
}
func (s *stubStore) CreateDeviceLog(_ int, message []byte) error {
	s.logs = append(s.logs, message)
	return nil
}
func (s *stubStore) CreatePlaylist(int, model.Weekday, int) (model.Playlist, error) {
	return model.Playlist{}, errors.New("not implemented")
}
func (s *stubStore) ListPlaylistsForDevice(int) ([]model.Playlist, error) {
	return s.playlists, nil
}
func (s *stubStore) AddItemToPlaylist(string, int, int, int) (model.PlaylistItem, error) {
	return model.PlaylistItem{}, errors.New("not implemented")
}
func (s *stubStore) GetPlaylistItem(itemUUID string) (*model.PlaylistItem, error) {
	if s.item != nil && s.item.UUID.String() == itemUUID {
		return s.item, nil
	}
	return nil, errors.New("not found")
}
func (s *stubStore) SetItemLastDisplayed(string, time.Time) error { return nil }
func (s *stubStore) CreatePlugin(string, string, string, []byte) (model.Plugin, error) {
	return model.Plugin{}, errors.New("not implemented")
}
func (s *stubStore) GetPluginByID(int) (*model.Plugin, error) { return nil, errors.New("not found") }
func (s *stubStore) ListPluginSources() ([]string, error)     { return nil, nil }
func (s *stubStore) CreateScreen(int, string, *uuid.UUID) (int, error) {
	return 0, errors.New("not implemented")
}
func (s *stubStore) MarkScreenGenerated(int, []byte) error { return errors.New("not implemented") }
func (s *stubStore) LatestScreenForDevice(int) (*model.Screen, error) {
	return s.screen, nil
}
func (s *stubStore) GetScreenByID(id int) (*model.Screen, error) {
	if s.screen != nil && s.screen.ID == id {
		return s.screen, nil
	}
	return nil, errors.New("not found")
}
func (s *stubStore) DeleteScreensOlderThan(time.Time) (int64, error) { return 0, nil }

func newTestRouter(store *stubStore) (*gin.Engine, *tasks.MemoryQueue) {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	queue := tasks.NewMemoryQueue(nil)
	scheduler := schedule.NewScheduler(store, queue, schedule.Clock{}, 30*time.Second)

	grp := r.Group("/api/v1")
	grp.Use(func(c *gin.Context) {
		c.Set("currentDevice", store.device)
		c.Next()
	})
	RegisterDeviceRoutes(grp, store, scheduler, "http://inkwell.local")
	return r, queue
}

func deviceFixture() *model.Device {
	return &model.Device{
		ID:          1,
		FriendlyID:  "AB12CD",
		Name:        "kitchen",
		APIKey:      "secret",
		RefreshRate: 900,
	}
}

func TestGetDisplay_WithGeneratedScreen(t *testing.T) {
	store := &stubStore{
		device: deviceFixture(),
		screen: &model.Screen{ID: 5, DeviceID: 1, Generated: true, Image: []byte("bmp")},
	}
	router, _ := newTestRouter(store)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/display", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "AB12CD-5.bmp", resp["filename"])
	assert.Equal(t, "http://inkwell.local/api/v1/media/AB12CD-5.bmp", resp["image_url"])
	assert.Equal(t, float64(900), resp["refresh_rate"])
	assert.Equal(t, true, resp["update_screen"])
	assert.Equal(t, 1, store.touched)
}

// A poll must re-arm scheduling against its own timestamp: with a
// fresh last_seen the next render lands margin-before-expiry, not at
// the short settle delay a stale snapshot would force.
func TestGetDisplay_ReArmsFromFreshPoll(t *testing.T) {
	staleLastSeen := time.Now().UTC().Add(-900 * time.Second)
	device := deviceFixture()
	device.LastSeenAt = &staleLastSeen

	item := &model.PlaylistItem{
		UUID:     uuid.New(),
		Position: 1,
		IsActive: true,
		PluginID: 10,
		Duration: 900,
	}
	store := &stubStore{
		device: device,
		screen: &model.Screen{
			ID: 5, DeviceID: 1, Generated: true,
			Image: []byte("bmp"), PlaylistItemUUID: &item.UUID,
		},
		item: item,
		playlists: []model.Playlist{{
			UUID:     uuid.New(),
			DeviceID: 1,
			IsActive: true,
			Weekdays: model.AllWeekdays,
			Items:    []model.PlaylistItem{*item},
		}},
	}
	router, queue := newTestRouter(store)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/display", nil))
	require.Equal(t, http.StatusOK, w.Code)

	require.NotNil(t, device.LastSeenAt)
	assert.True(t, device.LastSeenAt.After(staleLastSeen))
	assert.Equal(t, 1, device.Refreshes)

	fireAt, ok := queue.Pending(tasks.KeyForDevice(device.ID))
	require.True(t, ok)
	// duration 900s, margin 30s: the task lands ~870s out, far from
	// the 5s settle delay a stale last_seen would produce
	want := device.LastSeenAt.Add(900*time.Second - 30*time.Second)
	assert.WithinDuration(t, want, fireAt, time.Second)
	assert.Greater(t, time.Until(fireAt), 10*time.Minute)
}

func TestGetDisplay_NoScreenYet(t *testing.T) {
	store := &stubStore{device: deviceFixture()}
	router, _ := newTestRouter(store)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/display", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["update_screen"])
	assert.Equal(t, "", resp["filename"])
}

func TestGetMedia(t *testing.T) {
	store := &stubStore{
		device: deviceFixture(),
		screen: &model.Screen{ID: 5, DeviceID: 1, Generated: true, Image: []byte("bmp-bytes")},
	}
	router, _ := newTestRouter(store)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/media/AB12CD-5.bmp", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/bmp", w.Header().Get("Content-Type"))
	assert.Equal(t, "bmp-bytes", w.Body.String())
}

func TestGetMedia_WrongDevice(t *testing.T) {
	store := &stubStore{
		device: deviceFixture(),
		screen: &model.Screen{ID: 5, DeviceID: 1, Generated: true, Image: []byte("x")},
	}
	router, _ := newTestRouter(store)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/media/ZZ99XX-5.bmp", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetMedia_UngeneratedScreen(t *testing.T) {
	store := &stubStore{
		device: deviceFixture(),
		screen: &model.Screen{ID: 5, DeviceID: 1},
	}
	router, _ := newTestRouter(store)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/media/AB12CD-5.bmp", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPostLog(t *testing.T) {
	store := &stubStore{device: deviceFixture()}
	router, _ := newTestRouter(store)

	body := strings.NewReader(`{"logs_array": [{"message": "boot ok"}]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/log", body)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Len(t, store.logs, 1)
	assert.JSONEq(t, `[{"message": "boot ok"}]`, string(store.logs[0]))
}

func TestParseScreenFilename(t *testing.T) {
	friendly, id, err := parseScreenFilename("AB12CD-17.bmp")
	require.NoError(t, err)
	assert.Equal(t, "AB12CD", friendly)
	assert.Equal(t, 17, id)

	for _, bad := range []string{"AB12CD-17.png", "AB12CD.bmp", "-5.bmp", "AB12CD-.bmp", "AB12CD-xy.bmp"} {
		_, _, err := parseScreenFilename(bad)
		assert.Error(t, err, bad)
	}
}
