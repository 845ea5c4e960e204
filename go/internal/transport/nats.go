package transport

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/livechat-docker/livechat/go/internal/session"
)

// ClientIDHeader carries the sender's client instance id on outbound messages
const ClientIDHeader = "Client-Id"

// NATSConfig holds configuration for the NATS transport
type NATSConfig struct {
	URL           string
	SubjectPrefix string // e.g. "livechat"
	ClientID      string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultNATSConfig returns default NATS transport configuration
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		SubjectPrefix: "livechat",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// InboundSubject is where the server delivers events for one client
func (c NATSConfig) InboundSubject() string {
	return fmt.Sprintf("%s.client.%s", c.SubjectPrefix, c.ClientID)
}

// OutboundSubject is where the client publishes events of the given type
func (c NATSConfig) OutboundSubject(eventType session.EventType) string {
	return fmt.Sprintf("%s.server.%s", c.SubjectPrefix, eventType)
}

// NATS is a session.Transport carrying protocol envelopes over NATS subjects
type NATS struct {
	config NATSConfig
	sink   Sink
	nc     atomic.Pointer[nats.Conn]
}

// NewNATS creates a NATS transport delivering inbound events to sink
func NewNATS(config NATSConfig, sink Sink) *NATS {
	return &NATS{config: config, sink: sink}
}

// Connected reports whether the NATS connection is currently up
func (n *NATS) Connected() bool {
	nc := n.nc.Load()
	return nc != nil && nc.IsConnected()
}

// Emit publishes an outbound event to its server subject
func (n *NATS) Emit(ev session.Outbound) error {
	nc := n.nc.Load()
	if nc == nil || !nc.IsConnected() {
		return ErrNotConnected
	}

	data, err := session.EncodeOutbound(ev)
	if err != nil {
		return err
	}

	msg := nats.NewMsg(n.config.OutboundSubject(ev.EventType()))
	msg.Header.Set(ClientIDHeader, n.config.ClientID)
	msg.Data = data

	if err := nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", ev.EventType(), err)
	}
	return nil
}

// Run connects, subscribes to the client subject and blocks until ctx is cancelled
func (n *NATS) Run(ctx context.Context) error {
	opts := []nats.Option{
		nats.Name("livechat-" + n.config.ClientID),
		nats.MaxReconnects(n.config.MaxReconnects),
		nats.ReconnectWait(n.config.ReconnectWait),
		nats.RetryOnFailedConnect(true),
		nats.ConnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS connected")
			n.sink(&session.TransportConnected{})
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
			n.sink(&session.TransportDisconnected{Reason: err})
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
			n.sink(&session.TransportConnected{})
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
			n.sink(&session.TransportFailed{Err: err})
		}),
	}

	n.sink(&session.TransportConnecting{})

	nc, err := nats.Connect(n.config.URL, opts...)
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	n.nc.Store(nc)
	defer nc.Close()

	sub, err := nc.Subscribe(n.config.InboundSubject(), n.handleMessage)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", n.config.InboundSubject(), err)
	}

	log.Info().
		Str("subject", n.config.InboundSubject()).
		Msg("NATS transport subscribed")

	<-ctx.Done()
	log.Info().Msg("NATS transport shutting down")

	if err := sub.Unsubscribe(); err != nil {
		log.Warn().Err(err).Msg("failed to unsubscribe")
	}
	return nil
}

func (n *NATS) handleMessage(msg *nats.Msg) {
	ev, err := session.DecodeInbound(msg.Data)
	if err != nil {
		log.Warn().
			Err(err).
			Str("subject", msg.Subject).
			Msg("dropping server event")
		return
	}
	n.sink(ev)
}
