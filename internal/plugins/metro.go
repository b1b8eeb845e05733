package plugins

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	cache "github.com/patrickmn/go-cache"
)

const metroTemplate = `<html>
<body style="margin:0;font-family:sans-serif;background:#fff;color:#000">
{{range .Lines}}
<div style="padding:12px;border-bottom:2px solid #000">
  <h2 style="margin:0">{{.Name}}</h2>
  {{range .Departures}}
  <p style="margin:2px 0">{{.Destination}} &mdash; {{.Waiting}}</p>
  {{end}}
</div>
{{end}}
</body>
</html>`

// MetroDepartures renders upcoming departures for configured transit
// stops. Config keys: "api_key" (required), "base_url" (optional,
// defaults to the public stop-monitoring endpoint) and "stops", a list
// of {"name": ..., "stop_id": ...} objects.
type MetroDepartures struct {
	client *http.Client
	cache  *cache.Cache
	tmpl   *template.Template
}

func NewMetroDepartures() *MetroDepartures {
	return &MetroDepartures{
		client: &http.Client{Timeout: 10 * time.Second},
		// Upstream rate limits are tight; one minute of caching keeps
		// repeated renders from hammering the API.
		cache: cache.New(time.Minute, 5*time.Minute),
		tmpl:  template.Must(template.New("metro").Parse(metroTemplate)),
	}
}

const defaultMetroBaseURL = "https://prim.iledefrance-mobilites.fr/marketplace/stop-monitoring"

type metroDeparture struct {
	Destination string
	Waiting     string
}

type metroLine struct {
	Name       string
	Departures []metroDeparture
}

func (m *MetroDepartures) GenerateHTML(ctx context.Context, config map[string]any) (string, error) {
	apiKey, err := requireString(config, "api_key")
	if err != nil {
		return "", err
	}
	stops, ok := config["stops"].([]any)
	if !ok || len(stops) == 0 {
		return "", &ConfigError{Key: "stops"}
	}
	baseURL := defaultMetroBaseURL
	if v, ok := config["base_url"].(string); ok && v != "" {
		baseURL = v
	}

	var lines []metroLine
	for _, raw := range stops {
		stop, ok := raw.(map[string]any)
		if !ok {
			return "", &ConfigError{Key: "stops"}
		}
		name, err := requireString(stop, "name")
		if err != nil {
			return "", err
		}
		stopID, err := requireString(stop, "stop_id")
		if err != nil {
			return "", err
		}
		departures, err := m.fetchStop(ctx, baseURL, apiKey, stopID)
		if err != nil {
			return "", err
		}
		lines = append(lines, metroLine{Name: name, Departures: departures})
	}

	var b strings.Builder
	if err := m.tmpl.Execute(&b, map[string]any{"Lines": lines}); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (m *MetroDepartures) fetchStop(ctx context.Context, baseURL, apiKey, stopID string) ([]metroDeparture, error) {
	if cached, ok := m.cache.Get(stopID); ok {
		return cached.([]metroDeparture), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL, nil)
	if err != nil {
		return nil, err
	}
	q := req.URL.Query()
	q.Set("MonitoringRef", fmt.Sprintf("STIF:StopPoint:Q:%s:", stopID))
	req.URL.RawQuery = q.Encode()
	req.Header.Set("apikey", apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("plugins: stop monitoring returned status %d", resp.StatusCode)
	}

	var payload struct {
		Siri struct {
			ServiceDelivery struct {
				StopMonitoringDelivery []struct {
					MonitoredStopVisit []struct {
						MonitoredVehicleJourney struct {
							DirectionName []struct {
								Value string `json:"value"`
							} `json:"DirectionName"`
							MonitoredCall struct {
								ExpectedArrivalTime time.Time `json:"ExpectedArrivalTime"`
							} `json:"MonitoredCall"`
						} `json:"MonitoredVehicleJourney"`
					} `json:"MonitoredStopVisit"`
				} `json:"StopMonitoringDelivery"`
			} `json:"ServiceDelivery"`
		} `json:"Siri"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	var out []metroDeparture
	for _, delivery := range payload.Siri.ServiceDelivery.StopMonitoringDelivery {
		for _, visit := range delivery.MonitoredStopVisit {
			journey := visit.MonitoredVehicleJourney
			dest := ""
			if len(journey.DirectionName) > 0 {
				dest = journey.DirectionName[0].Value
			}
			waiting := "now"
			if d := time.Until(journey.MonitoredCall.ExpectedArrivalTime); d > 0 {
				waiting = fmt.Sprintf("%d min", int(d.Minutes()))
			}
			out = append(out, metroDeparture{Destination: dest, Waiting: waiting})
		}
	}
	m.cache.Set(stopID, out, cache.DefaultExpiration)
	return out, nil
}
