package cycle

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-labs/inkwell/internal/model"
	"github.com/inkwell-labs/inkwell/internal/plugins"
	"github.com/inkwell-labs/inkwell/internal/schedule"
	"github.com/inkwell-labs/inkwell/internal/tasks"
)

// memStore backs both the scheduler and the cycle in tests.
type memStore struct {
	devices   map[int]*model.Device
	playlists []model.Playlist
	plugins   map[int]*model.Plugin
	screens   map[int]*model.Screen
	nextID    int
}

func newMemStore() *memStore {
	return &memStore{
		devices: map[int]*model.Device{},
		plugins: map[int]*model.Plugin{},
		screens: map[int]*model.Screen{},
	}
}

func (s *memStore) GetDeviceByID(id int) (*model.Device, error) {
	d, ok := s.devices[id]
	if !ok {
		return nil, errors.New("device not found")
	}
	return d, nil
}

func (s *memStore) ListPlaylistsForDevice(deviceID int) ([]model.Playlist, error) {
	var out []model.Playlist
	for _, p := range s.playlists {
		if p.DeviceID == deviceID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memStore) GetPlaylistItem(itemUUID string) (*model.PlaylistItem, error) {
	for i := range s.playlists {
		for j := range s.playlists[i].Items {
			if s.playlists[i].Items[j].UUID.String() == itemUUID {
				return &s.playlists[i].Items[j], nil
			}
		}
	}
	return nil, errors.New("item not found")
}

func (s *memStore) SetItemLastDisplayed(itemUUID string, at time.Time) error {
	item, err := s.GetPlaylistItem(itemUUID)
	if err != nil {
		return err
	}
	item.LastDisplayedAt = &at
	return nil
}

func (s *memStore) GetPluginByID(id int) (*model.Plugin, error) {
	p, ok := s.plugins[id]
	if !ok {
		return nil, errors.New("plugin not found")
	}
	return p, nil
}

func (s *memStore) CreateScreen(deviceID int, html string, itemUUID *uuid.UUID) (int, error) {
	s.nextID++
	s.screens[s.nextID] = &model.Screen{
		ID:               s.nextID,
		DeviceID:         deviceID,
		HTML:             html,
		PlaylistItemUUID: itemUUID,
		CreatedAt:        time.Now(),
	}
	return s.nextID, nil
}

func (s *memStore) MarkScreenGenerated(screenID int, image []byte) error {
	screen, ok := s.screens[screenID]
	if !ok {
		return errors.New("screen not found")
	}
	screen.Image = image
	screen.Generated = true
	return nil
}

func (s *memStore) LatestScreenForDevice(deviceID int) (*model.Screen, error) {
	var latest *model.Screen
	for _, screen := range s.screens {
		if screen.DeviceID != deviceID {
			continue
		}
		if latest == nil || screen.ID > latest.ID {
			latest = screen
		}
	}
	return latest, nil
}

func (s *memStore) DeleteScreensOlderThan(cutoff time.Time) (int64, error) {
	var n int64
	for id, screen := range s.screens {
		if screen.CreatedAt.Before(cutoff) {
			delete(s.screens, id)
			n++
		}
	}
	return n, nil
}

type fakeRenderer struct {
	raster []byte
	err    error
	calls  int
}

func (f *fakeRenderer) RenderOnce(context.Context, string) ([]byte, error) {
	f.calls++
	return f.raster, f.err
}

type fakeEncoder struct {
	bitmap []byte
	err    error
}

func (f *fakeEncoder) Encode([]byte) ([]byte, error) {
	return f.bitmap, f.err
}

var testNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC) // Monday

// fixture: one device with a single-item playlist active today.
func fixture(t *testing.T) (*memStore, *model.Device, uuid.UUID) {
	t.Helper()
	store := newMemStore()

	store.devices[1] = &model.Device{
		ID: 1, FriendlyID: "AB12CD", Name: "kitchen", RefreshRate: 900,
	}
	store.plugins[10] = &model.Plugin{
		ID:     10,
		Source: "static_html",
		Config: []byte(`{"html": "<h1>hello</h1>"}`),
	}

	itemUUID := uuid.New()
	store.playlists = []model.Playlist{{
		UUID:     uuid.New(),
		DeviceID: 1,
		IsActive: true,
		Weekdays: model.WeekdayOf(testNow),
		Items: []model.PlaylistItem{{
			UUID:     itemUUID,
			Position: 1,
			IsActive: true,
			PluginID: 10,
			Duration: 120,
		}},
	}}
	return store, store.devices[1], itemUUID
}

func newTestRunner(store *memStore, queue tasks.Queue, renderer Renderer, encoder Encoder) *Runner {
	scheduler := schedule.NewScheduler(store, queue, schedule.Clock{}, 30*time.Second)
	r := NewRunner(store, scheduler, plugins.Default(), renderer, encoder)
	r.now = func() time.Time { return testNow }
	return r
}

func TestRenderDevice_FullCycle(t *testing.T) {
	store, _, itemUUID := fixture(t)
	renderer := &fakeRenderer{raster: []byte("png")}
	encoder := &fakeEncoder{bitmap: []byte("bmp")}
	runner := newTestRunner(store, tasks.NewMemoryQueue(nil), renderer, encoder)

	require.NoError(t, runner.RenderDevice(context.Background(), 1))

	screen, err := store.LatestScreenForDevice(1)
	require.NoError(t, err)
	require.NotNil(t, screen)
	assert.True(t, screen.Generated)
	assert.Equal(t, []byte("bmp"), screen.Image)
	assert.Equal(t, "<h1>hello</h1>", screen.HTML)
	require.NotNil(t, screen.PlaylistItemUUID)
	assert.Equal(t, itemUUID, *screen.PlaylistItemUUID)

	item, err := store.GetPlaylistItem(itemUUID.String())
	require.NoError(t, err)
	require.NotNil(t, item.LastDisplayedAt)
	assert.Equal(t, testNow, *item.LastDisplayedAt)
}

func TestRenderDevice_RenderFailureLeavesRotationState(t *testing.T) {
	store, _, itemUUID := fixture(t)
	renderer := &fakeRenderer{err: errors.New("browser crashed")}
	runner := newTestRunner(store, tasks.NewMemoryQueue(nil), renderer, &fakeEncoder{})

	err := runner.RenderDevice(context.Background(), 1)
	require.ErrorIs(t, err, ErrRender)
	assert.True(t, Retryable(err))

	// ungenerated screen row remains for retention to reap
	screen, _ := store.LatestScreenForDevice(1)
	require.NotNil(t, screen)
	assert.False(t, screen.Generated)

	// rotation did not move, so the retry re-selects the same item
	item, err := store.GetPlaylistItem(itemUUID.String())
	require.NoError(t, err)
	assert.Nil(t, item.LastDisplayedAt)
}

func TestRenderDevice_EncodeFailure(t *testing.T) {
	store, _, _ := fixture(t)
	renderer := &fakeRenderer{raster: []byte("png")}
	encoder := &fakeEncoder{err: errors.New("bad raster")}
	runner := newTestRunner(store, tasks.NewMemoryQueue(nil), renderer, encoder)

	err := runner.RenderDevice(context.Background(), 1)
	require.ErrorIs(t, err, ErrEncode)
	assert.True(t, Retryable(err))
}

func TestRenderDevice_ConfigurationFailureNotRetryable(t *testing.T) {
	store, _, _ := fixture(t)
	store.plugins[10].Config = []byte(`{}`) // static_html without "html"
	renderer := &fakeRenderer{raster: []byte("png")}
	runner := newTestRunner(store, tasks.NewMemoryQueue(nil), renderer, &fakeEncoder{bitmap: []byte("bmp")})

	err := runner.RenderDevice(context.Background(), 1)
	require.ErrorIs(t, err, ErrConfiguration)
	assert.False(t, Retryable(err))
	assert.Zero(t, renderer.calls)
}

// flakySource stands in for a network-backed content source.
type flakySource struct {
	err error
}

func (f flakySource) GenerateHTML(context.Context, map[string]any) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "<h1>ok</h1>", nil
}

// An upstream outage in a content source is not a configuration
// problem: the cycle may simply run again at the next fire time.
func TestRenderDevice_UpstreamFailureIsRetryable(t *testing.T) {
	store, _, _ := fixture(t)
	store.plugins[10].Source = "departures"

	registry := plugins.NewRegistry()
	registry.Register("departures", flakySource{err: errors.New("fetching departures: status 502")})

	renderer := &fakeRenderer{raster: []byte("png")}
	scheduler := schedule.NewScheduler(store, tasks.NewMemoryQueue(nil), schedule.Clock{}, 30*time.Second)
	runner := NewRunner(store, scheduler, registry, renderer, &fakeEncoder{bitmap: []byte("bmp")})
	runner.now = func() time.Time { return testNow }

	err := runner.RenderDevice(context.Background(), 1)
	require.ErrorIs(t, err, ErrContent)
	assert.NotErrorIs(t, err, ErrConfiguration)
	assert.True(t, Retryable(err))
	assert.Zero(t, renderer.calls)
}

// A source that reports missing config stays non-retryable even when
// the error reaches the cycle wrapped.
func TestRenderDevice_SourceConfigErrorNotRetryable(t *testing.T) {
	store, _, _ := fixture(t)
	store.plugins[10].Source = "departures"

	registry := plugins.NewRegistry()
	registry.Register("departures", flakySource{
		err: fmt.Errorf("building request: %w", &plugins.ConfigError{Key: "station_id"}),
	})

	scheduler := schedule.NewScheduler(store, tasks.NewMemoryQueue(nil), schedule.Clock{}, 30*time.Second)
	runner := NewRunner(store, scheduler, registry, &fakeRenderer{}, &fakeEncoder{})
	runner.now = func() time.Time { return testNow }

	err := runner.RenderDevice(context.Background(), 1)
	require.ErrorIs(t, err, ErrConfiguration)
	assert.False(t, Retryable(err))
}

func TestRenderDevice_UnknownSource(t *testing.T) {
	store, _, _ := fixture(t)
	store.plugins[10].Source = "weather"
	runner := newTestRunner(store, tasks.NewMemoryQueue(nil), &fakeRenderer{}, &fakeEncoder{})

	err := runner.RenderDevice(context.Background(), 1)
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestRenderDevice_NoEligibleItemIsNotAnError(t *testing.T) {
	store, _, _ := fixture(t)
	store.playlists[0].IsActive = false
	renderer := &fakeRenderer{}
	runner := newTestRunner(store, tasks.NewMemoryQueue(nil), renderer, &fakeEncoder{})

	require.NoError(t, runner.RenderDevice(context.Background(), 1))
	assert.Zero(t, renderer.calls)
	assert.Empty(t, store.screens)
}

// Schedule then fire through the in-memory queue, as the worker does.
func TestScheduleThenFire(t *testing.T) {
	store, device, itemUUID := fixture(t)
	renderer := &fakeRenderer{raster: []byte("png")}
	encoder := &fakeEncoder{bitmap: []byte("bmp")}

	var runner *Runner
	queue := tasks.NewMemoryQueue(func(ctx context.Context, deviceID int) {
		runner.Handle(ctx, deviceID)
	})
	runner = newTestRunner(store, queue, renderer, encoder)
	scheduler := schedule.NewScheduler(store, queue, schedule.Clock{}, 30*time.Second)

	ctx := context.Background()
	require.NoError(t, scheduler.Schedule(ctx, device, testNow))

	// no current screen: the task lands at now + the settle delay
	fireAt, ok := queue.Pending(tasks.KeyForDevice(device.ID))
	require.True(t, ok)
	assert.Equal(t, testNow.Add(schedule.DefaultETADelay), fireAt)

	queue.FireDue(ctx, fireAt)

	screen, err := store.LatestScreenForDevice(device.ID)
	require.NoError(t, err)
	require.NotNil(t, screen)
	assert.True(t, screen.Generated)

	item, err := store.GetPlaylistItem(itemUUID.String())
	require.NoError(t, err)
	require.NotNil(t, item.LastDisplayedAt)

	// Handle re-armed the schedule for the next rotation step
	assert.Equal(t, 1, queue.Len())
}

func TestRetentionSweep(t *testing.T) {
	store, _, _ := fixture(t)
	old := testNow.Add(-25 * time.Hour)
	fresh := testNow.Add(-time.Hour)
	store.screens[1] = &model.Screen{ID: 1, DeviceID: 1, CreatedAt: old}
	store.screens[2] = &model.Screen{ID: 2, DeviceID: 1, CreatedAt: fresh, Generated: true}
	store.nextID = 2

	runner := newTestRunner(store, tasks.NewMemoryQueue(nil), &fakeRenderer{}, &fakeEncoder{})
	runner.sweep()

	assert.NotContains(t, store.screens, 1)
	assert.Contains(t, store.screens, 2)
}
