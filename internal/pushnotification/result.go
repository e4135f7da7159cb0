package pushnotification

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/kazz187/pushrelay/pkg/cerr"
)

// Reason classifies why a push could not be handed to the push service.
type Reason string

const (
	// ReasonInvalidSubscription means nothing was sent: the subscription
	// keys or endpoint could not be used to encrypt and sign the message.
	ReasonInvalidSubscription Reason = "invalid_subscription"
	// ReasonUnreachable means the request to the push service failed
	// before any answer arrived.
	ReasonUnreachable Reason = "unreachable"
	// ReasonExpired means the push service no longer knows the subscription.
	ReasonExpired Reason = "expired"
	// ReasonUnauthorized means the push service refused the VAPID token.
	ReasonUnauthorized Reason = "unauthorized"
	// ReasonRejected covers every other non-2xx answer.
	ReasonRejected Reason = "rejected"
	// ReasonInternal means the relay itself failed, including a panic
	// inside the transport.
	ReasonInternal Reason = "internal"
)

// Delivery is a push the push service accepted. Acceptance says nothing
// about whether the browser ever shows it.
type Delivery struct {
	ID         string
	Endpoint   string
	StatusCode int
	Payload    NotificationPayload
}

type DeliveryError struct {
	Reason     Reason
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *DeliveryError) Error() string {
	msg := fmt.Sprintf("push delivery failed (%s)", e.Reason)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" status %d", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Code is the cerr code a failed delivery is reported to callers with.
func (e *DeliveryError) Code() cerr.Code {
	switch e.Reason {
	case ReasonInvalidSubscription, ReasonExpired, ReasonUnauthorized:
		return cerr.FailedPrecondition
	case ReasonUnreachable, ReasonRejected:
		return cerr.Unavailable
	default:
		return cerr.Internal
	}
}

func classifyReceipt(endpoint string, r *Receipt) error {
	if r == nil {
		return &DeliveryError{Reason: ReasonInternal, Endpoint: endpoint, Err: errors.New("transport returned no receipt")}
	}
	var reason Reason
	switch {
	case r.StatusCode >= 200 && r.StatusCode < 300:
		return nil
	case r.StatusCode == http.StatusNotFound || r.StatusCode == http.StatusGone:
		reason = ReasonExpired
	case r.StatusCode == http.StatusUnauthorized || r.StatusCode == http.StatusForbidden:
		reason = ReasonUnauthorized
	default:
		reason = ReasonRejected
	}
	derr := &DeliveryError{Reason: reason, Endpoint: endpoint, StatusCode: r.StatusCode}
	if r.Body != "" {
		derr.Err = errors.New(r.Body)
	}
	return derr
}

func asDeliveryError(endpoint string, err error) *DeliveryError {
	var derr *DeliveryError
	if errors.As(err, &derr) {
		return derr
	}
	return &DeliveryError{Reason: ReasonInternal, Endpoint: endpoint, Err: err}
}
