package pushnotification

import (
	"context"
	"io"
	"net/http"
	"strings"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/kazz187/pushrelay/internal/config"
	"github.com/kazz187/pushrelay/internal/pushsubscription"
)

// Receipt is the push service's answer to one delivery request.
type Receipt struct {
	StatusCode int
	Body       string
}

// Transport encrypts payload for sub and hands it to sub's push service.
// A returned error is a *DeliveryError; HTTP answers are reported through
// the Receipt whatever their status.
type Transport interface {
	Deliver(ctx context.Context, sub *pushsubscription.Subscription, payload []byte) (*Receipt, error)
}

const maxReceiptBody = 512

type WebPushTransport struct {
	vapidEnv *config.VAPIDEnv
	ttl      int
	client   webpush.HTTPClient
}

type WebPushOption func(*WebPushTransport)

func WithHTTPClient(client webpush.HTTPClient) WebPushOption {
	return func(t *WebPushTransport) {
		t.client = client
	}
}

func NewWebPushTransport(vapidEnv *config.VAPIDEnv, pushEnv *config.PushEnv, opts ...WebPushOption) *WebPushTransport {
	t := &WebPushTransport{
		vapidEnv: vapidEnv,
		ttl:      pushEnv.TTL,
		client:   &http.Client{Timeout: pushEnv.Timeout},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// attemptClient records whether webpush got as far as the HTTP round trip,
// which separates encryption/signing failures from network failures.
type attemptClient struct {
	next      webpush.HTTPClient
	attempted bool
}

func (c *attemptClient) Do(req *http.Request) (*http.Response, error) {
	c.attempted = true
	return c.next.Do(req)
}

func (t *WebPushTransport) Deliver(ctx context.Context, sub *pushsubscription.Subscription, payload []byte) (*Receipt, error) {
	client := &attemptClient{next: t.client}
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.Keys.P256dh,
			Auth:   sub.Keys.Auth,
		},
	}, &webpush.Options{
		HTTPClient: client,
		// webpush-go adds the mailto: scheme itself.
		Subscriber:      strings.TrimPrefix(t.vapidEnv.Subject(), "mailto:"),
		TTL:             t.ttl,
		VAPIDPublicKey:  t.vapidEnv.VAPIDPublicKey,
		VAPIDPrivateKey: t.vapidEnv.VAPIDPrivateKey,
	})
	if err != nil {
		reason := ReasonInvalidSubscription
		if client.attempted {
			reason = ReasonUnreachable
		}
		return nil, &DeliveryError{Reason: reason, Endpoint: sub.Endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxReceiptBody))
	return &Receipt{
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}, nil
}
