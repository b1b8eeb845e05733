package plugins

import "context"

// StaticHTML serves the HTML stored directly in the plugin config
// under the "html" key.
type StaticHTML struct{}

func (StaticHTML) GenerateHTML(_ context.Context, config map[string]any) (string, error) {
	return requireString(config, "html")
}
