package cycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/inkwell-labs/inkwell/internal/model"
	"github.com/inkwell-labs/inkwell/internal/plugins"
	"github.com/inkwell-labs/inkwell/internal/schedule"
)

// Store is the slice of the persistence layer the cycle writes.
type Store interface {
	GetDeviceByID(id int) (*model.Device, error)
	GetPluginByID(id int) (*model.Plugin, error)
	CreateScreen(deviceID int, html string, itemUUID *uuid.UUID) (int, error)
	MarkScreenGenerated(screenID int, image []byte) error
	SetItemLastDisplayed(itemUUID string, at time.Time) error
	DeleteScreensOlderThan(cutoff time.Time) (int64, error)
}

// Renderer is the session-per-call render path.
type Renderer interface {
	RenderOnce(ctx context.Context, html string) ([]byte, error)
}

// Encoder converts a raster screenshot into the device bitmap.
type Encoder interface {
	Encode(raster []byte) ([]byte, error)
}

// ArtifactStore receives a copy of every generated bitmap (local disk
// or object storage). Optional; failures are logged, never fatal.
type ArtifactStore interface {
	SaveBytes(data []byte, filename string) (string, error)
}

// Notifier tells push-capable devices a fresh screen exists. Optional.
type Notifier interface {
	NotifyRefresh(deviceFriendlyID string) error
}

// Runner executes the fire-time render cycle for one device at a time.
type Runner struct {
	store     Store
	scheduler *schedule.Scheduler
	registry  *plugins.Registry
	renderer  Renderer
	encoder   Encoder
	artifacts ArtifactStore
	notifier  Notifier
	locks     *deviceLocks
	now       func() time.Time
}

func NewRunner(store Store, scheduler *schedule.Scheduler, registry *plugins.Registry, renderer Renderer, encoder Encoder) *Runner {
	return &Runner{
		store:     store,
		scheduler: scheduler,
		registry:  registry,
		renderer:  renderer,
		encoder:   encoder,
		locks:     newDeviceLocks(),
		now:       time.Now,
	}
}

// WithArtifacts attaches an artifact store copy target.
func (r *Runner) WithArtifacts(a ArtifactStore) *Runner {
	r.artifacts = a
	return r
}

// WithNotifier attaches a refresh-notice publisher.
func (r *Runner) WithNotifier(n Notifier) *Runner {
	r.notifier = n
	return r
}

// RenderDevice runs one render cycle: re-resolve the next item fresh,
// generate its HTML, create an ungenerated screen, render, encode,
// mark generated and stamp the item's last_displayed_at. Any failure
// leaves rotation state exactly as it was; an ungenerated screen row
// may remain and is reaped by retention. Rescheduling is deliberately
// NOT done here so the render step stays retryable on its own.
func (r *Runner) RenderDevice(ctx context.Context, deviceID int) error {
	unlock := r.locks.lock(deviceID)
	defer unlock()

	now := r.now()

	device, err := r.store.GetDeviceByID(deviceID)
	if err != nil {
		return fmt.Errorf("%w: loading device %d: %v", ErrPersistence, deviceID, err)
	}

	item, err := r.scheduler.NextItemForDevice(device, now)
	if err != nil {
		return fmt.Errorf("%w: resolving next item for device %d: %v", ErrPersistence, deviceID, err)
	}
	if item == nil {
		// A scheduling gap, not an error.
		log.Info().Int("device_id", deviceID).Msg("no active playlist item at fire time")
		return nil
	}

	plugin, err := r.store.GetPluginByID(item.PluginID)
	if err != nil {
		return fmt.Errorf("%w: loading plugin %d: %v", ErrPersistence, item.PluginID, err)
	}
	source, ok := r.registry.Get(plugin.Source)
	if !ok {
		return fmt.Errorf("%w: unknown source %q on plugin %d", ErrConfiguration, plugin.Source, plugin.ID)
	}
	config, err := plugin.ConfigMap()
	if err != nil {
		return fmt.Errorf("%w: plugin %d config: %v", ErrConfiguration, plugin.ID, err)
	}
	html, err := source.GenerateHTML(ctx, config)
	if err != nil {
		// Missing config needs an operator; anything else (upstream
		// API down, timeout) may succeed at the next cycle.
		var cfgErr *plugins.ConfigError
		if errors.As(err, &cfgErr) {
			return fmt.Errorf("%w: plugin %d: %v", ErrConfiguration, plugin.ID, err)
		}
		return fmt.Errorf("%w: plugin %d: %v", ErrContent, plugin.ID, err)
	}

	screenID, err := r.store.CreateScreen(device.ID, html, &item.UUID)
	if err != nil {
		return fmt.Errorf("%w: creating screen: %v", ErrPersistence, err)
	}

	raster, err := r.renderer.RenderOnce(ctx, html)
	if err != nil {
		return fmt.Errorf("%w: screen %d: %v", ErrRender, screenID, err)
	}
	bitmap, err := r.encoder.Encode(raster)
	if err != nil {
		return fmt.Errorf("%w: screen %d: %v", ErrEncode, screenID, err)
	}

	if err := r.store.MarkScreenGenerated(screenID, bitmap); err != nil {
		return fmt.Errorf("%w: marking screen %d generated: %v", ErrPersistence, screenID, err)
	}
	// Rotation state moves strictly after a successful render, so a
	// crash mid-cycle re-selects the same item on retry.
	if err := r.store.SetItemLastDisplayed(item.UUID.String(), now); err != nil {
		return fmt.Errorf("%w: stamping item %s: %v", ErrPersistence, item.UUID, err)
	}

	if r.artifacts != nil {
		filename := fmt.Sprintf("%s-%d.bmp", device.FriendlyID, screenID)
		if _, err := r.artifacts.SaveBytes(bitmap, filename); err != nil {
			log.Error().Err(err).Int("screen_id", screenID).Msg("[cycle] failed to copy bitmap to artifact storage")
		}
	}
	if r.notifier != nil {
		if err := r.notifier.NotifyRefresh(device.FriendlyID); err != nil {
			log.Warn().Err(err).Str("device", device.FriendlyID).Msg("[cycle] refresh notice not delivered")
		}
	}

	log.Info().
		Int("device_id", device.ID).
		Int("screen_id", screenID).
		Str("item", item.UUID.String()).
		Msg("generated screen")
	return nil
}

// Handle is the deferred-task callback: run the cycle, then re-arm
// scheduling for the following one. Failures are logged with device
// context and never propagate; the worker stays available for the
// next device.
func (r *Runner) Handle(ctx context.Context, deviceID int) {
	if err := r.RenderDevice(ctx, deviceID); err != nil {
		log.Error().Err(err).
			Int("device_id", deviceID).
			Bool("retryable", Retryable(err)).
			Msg("[cycle] render cycle failed")
	}

	device, err := r.store.GetDeviceByID(deviceID)
	if err != nil {
		log.Error().Err(err).Int("device_id", deviceID).Msg("[cycle] cannot reload device to re-arm schedule")
		return
	}
	if err := r.scheduler.Schedule(ctx, device, r.now()); err != nil {
		log.Error().Err(err).Int("device_id", deviceID).Msg("[cycle] failed to re-arm schedule")
	}
}
