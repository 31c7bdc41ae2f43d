package notify

import (
	"errors"
	"testing"
	"time"
)

func TestPublishUnreachableBroker(t *testing.T) {
	notifier := NewMQTTNotifier(Options{
		Broker:         "127.0.0.1",
		Port:           1,
		ConnectTimeout: time.Second,
	})
	err := notifier.Publish("homeassistant/commands", RebootPayload)
	if !errors.Is(err, ErrPublish) {
		t.Fatalf("expected ErrPublish, got %v", err)
	}
}

func TestNewMQTTNotifierDefaultsConnectTimeout(t *testing.T) {
	notifier := NewMQTTNotifier(Options{Broker: "mqtt.local", Port: 1883})
	if notifier.opts.ConnectTimeout != defaultConnectTimeout {
		t.Fatalf("unexpected connect timeout: %v", notifier.opts.ConnectTimeout)
	}
}
