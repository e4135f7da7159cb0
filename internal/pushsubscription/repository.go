package pushsubscription

import "context"

// Repository holds the subscription pushes are delivered to.
type Repository interface {
	// Register validates s and replaces whatever was held before.
	Register(ctx context.Context, s *Subscription) error
	// Current returns the held subscription, or false if none was registered.
	Current(ctx context.Context) (*Subscription, bool)
}
