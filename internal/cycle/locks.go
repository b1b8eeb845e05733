package cycle

import "sync"

// deviceLocks serializes renders per device. The queue key already
// dedupes scheduled tasks; this closes the remaining race between a
// scheduled render and a manually triggered one for the same device.
type deviceLocks struct {
	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

func newDeviceLocks() *deviceLocks {
	return &deviceLocks{locks: make(map[int]*sync.Mutex)}
}

func (d *deviceLocks) lock(deviceID int) func() {
	d.mu.Lock()
	m, ok := d.locks[deviceID]
	if !ok {
		m = &sync.Mutex{}
		d.locks[deviceID] = m
	}
	d.mu.Unlock()

	m.Lock()
	return m.Unlock
}
