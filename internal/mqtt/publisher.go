package mqtt

import (
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

// Publisher pushes "a fresh screen exists" notices to push-capable
// devices so they redraw without waiting out their poll interval.
// Devices subscribe to devices/<friendly_id>/refresh.
type Publisher struct {
	client mqtt.Client
}

var connectHandler mqtt.OnConnectHandler = func(client mqtt.Client) {
	log.Info().Msg("connected to MQTT broker")
}

var connectLostHandler mqtt.ConnectionLostHandler = func(client mqtt.Client, err error) {
	log.Warn().Err(err).Msg("MQTT connection lost")
}

func NewPublisher(brokerURL, clientID string) (*Publisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.OnConnect = connectHandler
	opts.OnConnectionLost = connectLostHandler

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %v", token.Error())
	}
	return &Publisher{client: client}, nil
}

// NotifyRefresh publishes a refresh notice for one device.
func (p *Publisher) NotifyRefresh(deviceFriendlyID string) error {
	topic := fmt.Sprintf("devices/%s/refresh", deviceFriendlyID)
	token := p.client.Publish(topic, 1, false, []byte("refresh"))
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish refresh notice for %s: %v", deviceFriendlyID, token.Error())
	}
	return nil
}

// Close disconnects the broker client.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
