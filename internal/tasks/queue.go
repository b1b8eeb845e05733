package tasks

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Handler executes a due render task for one device.
type Handler func(ctx context.Context, deviceID int)

// Queue is the deferred-task port: an idempotent upsert of "run the
// render for device X at time T". Implementations guarantee at most
// one pending task per key; a second Upsert with the same key replaces
// the fire time instead of queueing a duplicate.
type Queue interface {
	Upsert(ctx context.Context, key string, fireAt time.Time) error
	Cancel(ctx context.Context, key string) error
}

// KeyForDevice derives the queue key from the device identity. All
// schedulers must go through this so repeated calls collapse onto the
// same pending task.
func KeyForDevice(deviceID int) string {
	return fmt.Sprintf("device:%d", deviceID)
}

// DeviceIDFromKey recovers the device id from a queue key.
func DeviceIDFromKey(key string) (int, error) {
	raw, ok := strings.CutPrefix(key, "device:")
	if !ok {
		return 0, fmt.Errorf("tasks: malformed task key %q", key)
	}
	return strconv.Atoi(raw)
}
