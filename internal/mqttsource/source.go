package mqttsource

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DefaultTopic carries "address:message" page lines
const DefaultTopic = "pocsag/pages"

// Config holds the MQTT connection settings
type Config struct {
	Broker   string `mapstructure:"broker"`
	Topic    string `mapstructure:"topic"`
	ClientID string `mapstructure:"client_id"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	QoS      byte   `mapstructure:"qos"`
}

// Enabled reports whether a broker is configured
func (c Config) Enabled() bool {
	return c.Broker != ""
}

// Source subscribes to a topic and delivers each received page line
type Source struct {
	config Config
	client mqtt.Client
	logger *logrus.Logger
	lines  chan string
	done   chan struct{}
	once   sync.Once
}

// New creates a source; Connect starts the subscription
func New(config Config, logger *logrus.Logger) (*Source, error) {
	if !config.Enabled() {
		return nil, errors.New("mqtt broker not configured")
	}
	if config.Topic == "" {
		config.Topic = DefaultTopic
	}
	if config.QoS > 2 {
		return nil, fmt.Errorf("invalid mqtt qos %d", config.QoS)
	}
	if config.ClientID == "" {
		config.ClientID = "pocsagtx_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	}

	return &Source{
		config: config,
		logger: logger,
		lines:  make(chan string, 64),
		done:   make(chan struct{}),
	}, nil
}

// Lines returns the channel of received lines
func (s *Source) Lines() <-chan string {
	return s.lines
}

// Connect connects to the broker. The subscription is renewed on every
// reconnect.
func (s *Source) Connect() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(s.config.Broker)
	opts.SetClientID(s.config.ClientID)
	if s.config.Username != "" {
		opts.SetUsername(s.config.Username)
	}
	if s.config.Password != "" {
		opts.SetPassword(s.config.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(10 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(client mqtt.Client) {
		s.logger.WithField("broker", s.config.Broker).Info("MQTT connected")
		token := client.Subscribe(s.config.Topic, s.config.QoS, s.handleMessage)
		if token.WaitTimeout(10*time.Second) && token.Error() != nil {
			s.logger.WithError(token.Error()).WithField("topic", s.config.Topic).Error("MQTT subscribe failed")
			return
		}
		s.logger.WithField("topic", s.config.Topic).Info("MQTT subscribed")
	})
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		s.logger.WithError(err).Warn("MQTT connection lost")
	})

	s.client = mqtt.NewClient(opts)
	token := s.client.Connect()
	if !token.WaitTimeout(30 * time.Second) {
		return fmt.Errorf("timed out connecting to mqtt broker %s", s.config.Broker)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to connect to mqtt broker: %w", err)
	}
	return nil
}

// handleMessage splits the payload into lines and queues each of them
func (s *Source) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	payload := strings.ReplaceAll(string(msg.Payload()), "\r\n", "\n")

	for _, line := range strings.Split(payload, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		select {
		case s.lines <- line:
			s.logger.WithField("topic", msg.Topic()).Debug("MQTT page line received")
		case <-s.done:
			return
		}
	}
}

// Close unsubscribes and disconnects
func (s *Source) Close() error {
	s.once.Do(func() {
		close(s.done)
		if s.client != nil && s.client.IsConnected() {
			s.client.Unsubscribe(s.config.Topic).WaitTimeout(2 * time.Second)
			s.client.Disconnect(250)
		}
		s.logger.Info("MQTT source closed")
	})
	return nil
}
