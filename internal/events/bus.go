// Trinity - Group Movie Matching Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trinity

package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/nats-io/nats-server/v2/server"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/trinity/internal/config"
	"github.com/tomtom215/trinity/internal/models"
)

// Driver names accepted in events.driver.
const (
	DriverGoChannel = "gochannel"
	DriverNATS      = "nats"
)

// Bus owns the publisher and subscriber of one transport and, for the NATS
// driver, an optional embedded server.
type Bus struct {
	publisher   message.Publisher
	subscriber  message.Subscriber
	embedded    *server.Server
	topicPrefix string
	driver      string
	logger      watermill.LoggerAdapter
}

// NewBus connects the transport selected by cfg.Driver.
func NewBus(cfg config.EventsConfig, logger watermill.LoggerAdapter) (*Bus, error) {
	if logger == nil {
		logger = NewZerologAdapter()
	}
	b := &Bus{topicPrefix: cfg.TopicPrefix, driver: cfg.Driver, logger: logger}

	switch cfg.Driver {
	case DriverGoChannel, "":
		ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: cfg.Buffer}, logger)
		b.publisher, b.subscriber = ch, ch
		b.driver = DriverGoChannel
	case DriverNATS:
		if err := b.connectNATS(cfg); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown events driver %q", cfg.Driver)
	}

	logger.Info("Event bus ready", watermill.LogFields{"driver": b.driver, "topic_prefix": b.topicPrefix})
	return b, nil
}

func (b *Bus) connectNATS(cfg config.EventsConfig) error {
	url := cfg.NATSURL
	if cfg.EmbeddedNATS {
		ns, err := startEmbedded(cfg.EmbeddedPort)
		if err != nil {
			return err
		}
		b.embedded = ns
		url = ns.ClientURL()
	}

	logger := b.logger
	natsOpts := []natsgo.Option{
		natsgo.Name("trinity"),
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(time.Second),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}
	// Observer events are best-effort; core NATS is enough.
	jsCfg := wmNats.JetStreamConfig{Disabled: true}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         url,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   jsCfg,
	}, logger)
	if err != nil {
		b.shutdownEmbedded()
		return fmt.Errorf("create NATS publisher: %w", err)
	}

	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:            url,
		CloseTimeout:   5 * time.Second,
		AckWaitTimeout: 30 * time.Second,
		NatsOptions:    natsOpts,
		Unmarshaler:    &wmNats.NATSMarshaler{},
		JetStream:      jsCfg,
	}, logger)
	if err != nil {
		_ = pub.Close()
		b.shutdownEmbedded()
		return fmt.Errorf("create NATS subscriber: %w", err)
	}

	b.publisher, b.subscriber = pub, sub
	return nil
}

// startEmbedded runs an in-process NATS server on 127.0.0.1. Port -1 picks a
// free port.
func startEmbedded(port int) (*server.Server, error) {
	ns, err := server.NewServer(&server.Options{
		ServerName: "trinity-events",
		Host:       "127.0.0.1",
		Port:       port,
		NoLog:      true,
		NoSigs:     true,
		MaxPayload: 1024 * 1024,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedded NATS server: %w", err)
	}
	go ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		ns.Shutdown()
		return nil, errors.New("embedded NATS server not ready within 10s")
	}
	return ns, nil
}

// Publisher returns the transport's publisher.
func (b *Bus) Publisher() message.Publisher { return b.publisher }

// Subscriber returns the transport's subscriber.
func (b *Bus) Subscriber() message.Subscriber { return b.subscriber }

// Driver returns the active driver name.
func (b *Bus) Driver() string { return b.driver }

// Topic returns the full topic name for an activity kind.
func (b *Bus) Topic(kind models.ActivityKind) string {
	return Topic(b.topicPrefix, kind)
}

// Topic joins prefix and kind: "trinity" + vote.recorded -> "trinity.vote.recorded".
func Topic(prefix string, kind models.ActivityKind) string {
	if prefix == "" {
		return string(kind)
	}
	return prefix + "." + string(kind)
}

// Close shuts down the publisher, the subscriber and the embedded server.
func (b *Bus) Close() error {
	var errs []error
	if err := b.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publisher: %w", err))
	}
	// gochannel uses one value for both sides.
	if c, ok := b.subscriber.(message.Publisher); !ok || c != b.publisher {
		if err := b.subscriber.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close subscriber: %w", err))
		}
	}
	b.shutdownEmbedded()
	return errors.Join(errs...)
}

func (b *Bus) shutdownEmbedded() {
	if b.embedded != nil {
		b.embedded.Shutdown()
		b.embedded.WaitForShutdown()
		b.embedded = nil
	}
}
