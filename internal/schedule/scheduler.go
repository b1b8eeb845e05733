package schedule

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/inkwell-labs/inkwell/internal/model"
	"github.com/inkwell-labs/inkwell/internal/tasks"
)

// DefaultETADelay is the short settle delay used whenever there is no
// reliable basis for a longer wait.
const DefaultETADelay = 5 * time.Second

// Store is the slice of the persistence layer the scheduler reads.
type Store interface {
	ListPlaylistsForDevice(deviceID int) ([]model.Playlist, error)
	LatestScreenForDevice(deviceID int) (*model.Screen, error)
	GetPlaylistItem(itemUUID string) (*model.PlaylistItem, error)
}

// Scheduler walks a device's playlists, picks the next item and arms
// the deferred-task queue for the next render.
type Scheduler struct {
	store  Store
	queue  tasks.Queue
	clock  Clock
	margin time.Duration
}

// NewScheduler builds a scheduler. margin is the lead time before a
// screen's expected expiry at which the next render should already be
// running.
func NewScheduler(store Store, queue tasks.Queue, clock Clock, margin time.Duration) *Scheduler {
	return &Scheduler{store: store, queue: queue, clock: clock, margin: margin}
}

// NextItemForDevice returns the first eligible item across the
// device's playlists in stable order, or nil when nothing is eligible.
// The first active playlist wins entirely; playlists are never merged.
func (s *Scheduler) NextItemForDevice(device *model.Device, now time.Time) (*model.PlaylistItem, error) {
	playlists, err := s.store.ListPlaylistsForDevice(device.ID)
	if err != nil {
		return nil, err
	}
	for i := range playlists {
		if item := s.clock.NextItem(&playlists[i], now); item != nil {
			return item, nil
		}
	}
	return nil, nil
}

// ComputeNextFireTime returns the wall-clock time the next render
// should run: margin seconds before the current screen expires, or
// now + DefaultETADelay when there is no current screen or it has
// already expired.
func (s *Scheduler) ComputeNextFireTime(device *model.Device, now time.Time) (time.Time, error) {
	defaultETA := now.Add(DefaultETADelay)

	current, err := s.store.LatestScreenForDevice(device.ID)
	if err != nil {
		return time.Time{}, err
	}
	if current == nil || device.LastSeenAt == nil {
		return defaultETA, nil
	}

	duration := s.displayDuration(current, device)
	expiry := device.LastSeenAt.Add(time.Duration(duration)*time.Second - s.margin)
	if expiry.Before(now) {
		log.Info().Int("device_id", device.ID).Msg("current screen already expired, scheduling shortly")
		return defaultETA, nil
	}
	return expiry, nil
}

// displayDuration is the originating item's duration when the screen
// references one, else the device default refresh rate.
func (s *Scheduler) displayDuration(screen *model.Screen, device *model.Device) int {
	if screen.PlaylistItemUUID == nil {
		return device.RefreshRate
	}
	item, err := s.store.GetPlaylistItem(screen.PlaylistItemUUID.String())
	if err != nil || item == nil {
		log.Warn().Err(err).Int("device_id", device.ID).Msg("screen references a missing playlist item, using device refresh rate")
		return device.RefreshRate
	}
	return item.Duration
}

// Schedule resolves the next item and upserts the render task for the
// device. With no eligible item it logs and leaves any pending task
// untouched. The task key is derived from the device identity, so a
// device never accumulates more than one pending render.
func (s *Scheduler) Schedule(ctx context.Context, device *model.Device, now time.Time) error {
	item, err := s.NextItemForDevice(device, now)
	if err != nil {
		return err
	}
	if item == nil {
		log.Info().Int("device_id", device.ID).Msg("no active playlist item for device, nothing to schedule")
		return nil
	}

	fireAt, err := s.ComputeNextFireTime(device, now)
	if err != nil {
		return err
	}
	if err := s.queue.Upsert(ctx, tasks.KeyForDevice(device.ID), fireAt); err != nil {
		return err
	}
	log.Info().
		Int("device_id", device.ID).
		Time("fire_at", fireAt).
		Msg("scheduled next screen generation")
	return nil
}
