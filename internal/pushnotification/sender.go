package pushnotification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/oklog/ulid/v2"

	"github.com/kazz187/pushrelay/internal/pushsubscription"
	"github.com/kazz187/pushrelay/pkg/panicerr"
)

const (
	NotificationTitle = "Push Relay Notification"
	GreetingMessage   = "Hello World! 👋"
	DefaultMessage    = "Manual Notification 🔔"
)

type NotificationPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Marshal encodes p without HTML escaping so the body reaches the service
// worker byte for byte.
func (p NotificationPayload) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Sender dispatches one notification per call. It never retries and never
// touches the subscription store.
type Sender struct {
	transport Transport
}

func NewSender(transport Transport) *Sender {
	return &Sender{
		transport: transport,
	}
}

// Send pushes message to sub. A nil sub is a caller error and yields
// pushsubscription.ErrNoSubscription without any network call; every
// other failure is a *DeliveryError.
func (s *Sender) Send(ctx context.Context, sub *pushsubscription.Subscription, message string) (*Delivery, error) {
	if sub == nil {
		slog.WarnContext(ctx, "push notification: no subscription, not dispatching")
		return nil, pushsubscription.ErrNoSubscription
	}

	payload := NotificationPayload{
		Title: NotificationTitle,
		Body:  message,
	}
	data, err := payload.Marshal()
	if err != nil {
		return nil, &DeliveryError{Reason: ReasonInternal, Endpoint: sub.Endpoint, Err: fmt.Errorf("failed to marshal payload: %w", err)}
	}

	id := ulid.Make().String()
	logger := slog.With("delivery_id", id, "endpoint", sub.Endpoint)
	logger.InfoContext(ctx, "push notification: dispatch attempted", "body", message)

	receipt, err := panicerr.Call(func() (*Receipt, error) {
		return s.transport.Deliver(ctx, sub, data)
	})
	if err == nil {
		err = classifyReceipt(sub.Endpoint, receipt)
	}
	if err != nil {
		derr := asDeliveryError(sub.Endpoint, err)
		level := slog.LevelError
		if derr.Reason == ReasonExpired {
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, "push notification: dispatch failed",
			"reason", derr.Reason,
			"status", derr.StatusCode,
			"error", derr,
		)
		return nil, derr
	}

	logger.InfoContext(ctx, "push notification: dispatch succeeded", "status", receipt.StatusCode)
	return &Delivery{
		ID:         id,
		Endpoint:   sub.Endpoint,
		StatusCode: receipt.StatusCode,
		Payload:    payload,
	}, nil
}
