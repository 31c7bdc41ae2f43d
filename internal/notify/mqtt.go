package notify

import (
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

var ErrPublish = errors.New("notify: publish failed")

// RebootPayload is the fixed message signaling a reboot request.
const RebootPayload = "reboot"

const defaultConnectTimeout = 30 * time.Second

// Notifier publishes one fire-and-forget message to a channel.
type Notifier interface {
	Publish(topic, payload string) error
}

// Options configures the MQTT notifier connection.
type Options struct {
	Broker         string
	Port           int
	Username       string
	Password       string
	ConnectTimeout time.Duration
}

// MQTTNotifier publishes over a short-lived MQTT connection: connect, send
// one message, disconnect. No retry.
type MQTTNotifier struct {
	opts Options
}

// NewMQTTNotifier constructs an MQTT notifier with bounded connect time.
func NewMQTTNotifier(opts Options) *MQTTNotifier {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = defaultConnectTimeout
	}
	return &MQTTNotifier{opts: opts}
}

// Publish sends one message at QoS 0 to the configured broker.
func (n *MQTTNotifier) Publish(topic, payload string) error {
	clientOpts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", n.opts.Broker, n.opts.Port)).
		SetClientID(fmt.Sprintf("tuyactl-%d", time.Now().UnixNano())).
		SetConnectTimeout(n.opts.ConnectTimeout).
		SetKeepAlive(60 * time.Second)
	if strings.TrimSpace(n.opts.Username) != "" && strings.TrimSpace(n.opts.Password) != "" {
		clientOpts.SetUsername(n.opts.Username)
		clientOpts.SetPassword(n.opts.Password)
	}

	client := mqtt.NewClient(clientOpts)
	connect := client.Connect()
	if !connect.WaitTimeout(n.opts.ConnectTimeout) {
		return fmt.Errorf("%w: connect timeout to %s:%d", ErrPublish, n.opts.Broker, n.opts.Port)
	}
	if err := connect.Error(); err != nil {
		return fmt.Errorf("%w: connect: %v", ErrPublish, err)
	}
	defer client.Disconnect(250)

	publish := client.Publish(topic, 0, false, payload)
	publish.Wait()
	if err := publish.Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrPublish, err)
	}
	return nil
}
