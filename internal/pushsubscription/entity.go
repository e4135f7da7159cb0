package pushsubscription

import (
	"errors"
	"time"

	"github.com/kazz187/pushrelay/pkg/cerr"
)

// ErrNoSubscription is returned when a push is requested before any
// subscription has been registered.
var ErrNoSubscription = errors.New("no subscription available")

// Keys are the base64url encoded values of PushSubscription.getKey().
type Keys struct {
	P256dh string `json:"p256dh" yaml:"p256dh"`
	Auth   string `json:"auth" yaml:"auth"`
}

// Subscription mirrors the browser's PushSubscription.toJSON() plus the
// metadata assigned when it is registered.
type Subscription struct {
	ID           string    `json:"id,omitempty" yaml:"id,omitempty"`
	Endpoint     string    `json:"endpoint" yaml:"endpoint"`
	Keys         Keys      `json:"keys" yaml:"keys"`
	RegisteredAt time.Time `json:"registered_at,omitzero" yaml:"registered_at,omitempty"`
}

// Validate reports every missing field as one detail of a single
// InvalidArgument error.
func (s *Subscription) Validate() error {
	if s == nil {
		return cerr.NewError(cerr.InvalidArgument, "subscription is required", nil)
	}
	var missing []string
	if s.Endpoint == "" {
		missing = append(missing, "endpoint")
	}
	if s.Keys.P256dh == "" {
		missing = append(missing, "keys.p256dh")
	}
	if s.Keys.Auth == "" {
		missing = append(missing, "keys.auth")
	}
	if len(missing) == 0 {
		return nil
	}
	err := cerr.NewError(cerr.InvalidArgument, "invalid subscription", nil)
	for _, field := range missing {
		err.AddDetailMessageWithCode(field+" is required", field+".required")
	}
	return err
}

// Clone returns a copy that shares nothing with s.
func (s *Subscription) Clone() *Subscription {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
