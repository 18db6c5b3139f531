package mq

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/Jitesh050/ConnectSphere---A-LinkedIn-Clone/config"
	"github.com/nats-io/nats.go"
)

const (
	natsQueueGroup   = "connectsphere-workers"
	natsHeaderMsgID  = "Nats-Msg-Id"
	natsConnectWait  = 2 * time.Second
	natsConnectTries = 10
)

// NATSClient wraps a core NATS connection. Subscribers on the same channel
// share a queue group, so each message reaches one worker.
type NATSClient struct {
	conn *nats.Conn
}

// NewNATSClient connects to NATS, retrying while the server starts up.
func NewNATSClient(cfg config.NATSConfig) (*NATSClient, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("nats url is required")
	}

	var (
		conn *nats.Conn
		err  error
	)
	for i := 0; i < natsConnectTries; i++ {
		conn, err = nats.Connect(cfg.URL, nats.Name("connectsphere"))
		if err == nil {
			return &NATSClient{conn: conn}, nil
		}
		slog.Info("waiting for nats", "attempt", i+1, "error", err)
		time.Sleep(natsConnectWait)
	}
	return nil, err
}

// Publish sends a message on the named subject.
func (n *NATSClient) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if strings.TrimSpace(channel) == "" {
		return "", errors.New("nats channel is required")
	}

	messageID := newMessageID()
	msg := nats.NewMsg(channel)
	msg.Data = data
	msg.Header.Set(natsHeaderMsgID, messageID)
	for key, value := range attrs {
		msg.Header.Set(key, value)
	}

	if err := n.conn.PublishMsg(msg); err != nil {
		return "", err
	}
	return messageID, nil
}

// Subscribe consumes messages from the named subject until ctx is done.
// Core NATS has no redelivery, so handler failures are logged and dropped.
func (n *NATSClient) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if strings.TrimSpace(channel) == "" {
		return errors.New("nats channel is required")
	}

	msgs := make(chan *nats.Msg, 64)
	sub, err := n.conn.ChanQueueSubscribe(channel, natsQueueGroup, msgs)
	if err != nil {
		return err
	}
	defer func() {
		_ = sub.Unsubscribe()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-msgs:
			attrs := make(map[string]string, len(msg.Header))
			for key := range msg.Header {
				attrs[key] = msg.Header.Get(key)
			}
			message := Message{
				ID:         msg.Header.Get(natsHeaderMsgID),
				Data:       msg.Data,
				Attributes: attrs,
			}
			if err := handler(ctx, message); err != nil {
				slog.Warn("nats handler failed", "subject", channel, "message_id", message.ID, "error", err)
			}
		}
	}
}

// Close drains the connection.
func (n *NATSClient) Close() error {
	return n.conn.Drain()
}
