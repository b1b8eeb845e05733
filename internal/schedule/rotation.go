package schedule

import (
	"sort"
	"strings"
	"time"

	"github.com/inkwell-labs/inkwell/internal/model"
)

// NextItem picks the item to display next from a playlist, or nil when
// the playlist is not eligible or has no active items.
//
// Rotation is round-robin by explicit position: the item shown most
// recently (max last_displayed_at) anchors the walk, the first active
// item with a strictly greater position follows it, and the rotation
// wraps back to the lowest position. Items never displayed yield a
// cold start at the lowest position. This is a pure function of the
// playlist state at the time of the call; callers re-evaluate it at
// fire time rather than caching the result.
func (c Clock) NextItem(p *model.Playlist, now time.Time) *model.PlaylistItem {
	if !c.IsActiveNow(p, now) {
		return nil
	}

	items := activeItemsInOrder(p.Items)
	if len(items) == 0 {
		return nil
	}

	last := lastDisplayedItem(items)
	if last == nil {
		return items[0]
	}
	for _, it := range items {
		if it.Position > last.Position {
			return it
		}
	}
	return items[0]
}

// activeItemsInOrder filters to active items sorted by (position, uuid).
func activeItemsInOrder(items []model.PlaylistItem) []*model.PlaylistItem {
	out := make([]*model.PlaylistItem, 0, len(items))
	for i := range items {
		if items[i].IsActive {
			out = append(out, &items[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return strings.Compare(out[i].UUID.String(), out[j].UUID.String()) < 0
	})
	return out
}

func lastDisplayedItem(items []*model.PlaylistItem) *model.PlaylistItem {
	var last *model.PlaylistItem
	for _, it := range items {
		if it.LastDisplayedAt == nil {
			continue
		}
		if last == nil || it.LastDisplayedAt.After(*last.LastDisplayedAt) {
			last = it
		}
	}
	return last
}
