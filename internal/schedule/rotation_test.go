package schedule

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-labs/inkwell/internal/model"
)

func rotationPlaylist(positions ...int) *model.Playlist {
	p := &model.Playlist{
		UUID:     uuid.New(),
		IsActive: true,
		Weekdays: model.AllWeekdays,
	}
	for _, pos := range positions {
		p.Items = append(p.Items, model.PlaylistItem{
			UUID:     uuid.New(),
			Position: pos,
			IsActive: true,
			Duration: 60,
		})
	}
	return p
}

func markDisplayed(p *model.Playlist, idx int, at time.Time) {
	p.Items[idx].LastDisplayedAt = &at
}

func TestNextItem_ColdStart(t *testing.T) {
	var clock Clock
	p := rotationPlaylist(3, 1, 2)

	got := clock.NextItem(p, monday)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.Position)
}

func TestNextItem_RoundRobin(t *testing.T) {
	var clock Clock
	p := rotationPlaylist(1, 2, 3)

	markDisplayed(p, 0, monday.Add(-time.Minute))
	got := clock.NextItem(p, monday)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.Position)

	markDisplayed(p, 1, monday.Add(-30*time.Second))
	got = clock.NextItem(p, monday)
	require.NotNil(t, got)
	assert.Equal(t, 3, got.Position)
}

func TestNextItem_WrapsToLowestPosition(t *testing.T) {
	var clock Clock
	p := rotationPlaylist(1, 2, 3)
	markDisplayed(p, 2, monday.Add(-time.Minute))

	got := clock.NextItem(p, monday)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.Position)
}

func TestNextItem_AnchorsOnMostRecentDisplay(t *testing.T) {
	var clock Clock
	p := rotationPlaylist(1, 2, 3)
	markDisplayed(p, 2, monday.Add(-time.Hour))
	markDisplayed(p, 0, monday.Add(-time.Minute))

	got := clock.NextItem(p, monday)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.Position)
}

func TestNextItem_SkipsInactiveItems(t *testing.T) {
	var clock Clock
	p := rotationPlaylist(1, 2, 3)
	p.Items[1].IsActive = false
	markDisplayed(p, 0, monday.Add(-time.Minute))

	got := clock.NextItem(p, monday)
	require.NotNil(t, got)
	assert.Equal(t, 3, got.Position)
}

func TestNextItem_NoEligibleItems(t *testing.T) {
	var clock Clock

	empty := rotationPlaylist()
	assert.Nil(t, clock.NextItem(empty, monday))

	allInactive := rotationPlaylist(1, 2)
	allInactive.Items[0].IsActive = false
	allInactive.Items[1].IsActive = false
	assert.Nil(t, clock.NextItem(allInactive, monday))
}

func TestNextItem_InactivePlaylist(t *testing.T) {
	var clock Clock
	p := rotationPlaylist(1)
	p.IsActive = false
	assert.Nil(t, clock.NextItem(p, monday))
}

func TestNextItem_PositionTieBreaksOnUUID(t *testing.T) {
	var clock Clock
	p := rotationPlaylist(1, 1)

	first := clock.NextItem(p, monday)
	require.NotNil(t, first)
	second := clock.NextItem(p, monday)
	require.NotNil(t, second)
	// pure function: same state, same answer
	assert.Equal(t, first.UUID, second.UUID)
}
