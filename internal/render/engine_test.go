package render

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderOnce_EmptyHTMLShortCircuits(t *testing.T) {
	// no browser is reachable here; the empty-input check must fire
	// before any session is acquired
	engine := NewEngine("")

	for _, html := range []string{"", "   ", "\n\t"} {
		_, err := engine.RenderOnce(context.Background(), html)
		assert.ErrorIs(t, err, ErrEmptyHTML)
	}
}

func TestEngineDefaults(t *testing.T) {
	engine := NewEngine("ws://browser:9222")
	assert.Equal(t, "ws://browser:9222", engine.RemoteURL)
	assert.Equal(t, DefaultWidth, engine.Width)
	assert.Equal(t, DefaultHeight, engine.Height)
}
