package pushnotification

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/pushrelay/internal/pushsubscription"
	"github.com/kazz187/pushrelay/internal/pushsubscription/repositoryimpl"
	"github.com/kazz187/pushrelay/pkg/cerr"
)

func testSubscription() *pushsubscription.Subscription {
	return &pushsubscription.Subscription{
		Endpoint: "https://push.example/abc",
		Keys:     pushsubscription.Keys{P256dh: "BKey", Auth: "ASecret"},
	}
}

func TestSender_Send(t *testing.T) {
	transport := newFakeTransport(http.StatusCreated)
	sender := NewSender(transport)

	delivery, err := sender.Send(context.Background(), testSubscription(), "Custom msg")
	require.NoError(t, err)
	assert.Equal(t, "https://push.example/abc", delivery.Endpoint)
	assert.Equal(t, http.StatusCreated, delivery.StatusCode)
	assert.NotEmpty(t, delivery.ID)
	assert.Equal(t, NotificationPayload{Title: NotificationTitle, Body: "Custom msg"}, delivery.Payload)

	calls := transport.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, *testSubscription(), calls[0].Sub)
	assert.Equal(t, NotificationPayload{Title: NotificationTitle, Body: "Custom msg"}, decodePayload(t, calls[0].Payload))
}

func TestSender_PayloadIsByteExact(t *testing.T) {
	transport := newFakeTransport(http.StatusCreated)
	sender := NewSender(transport)

	_, err := sender.Send(context.Background(), testSubscription(), "<b>Tom & Jerry</b> 👋")
	require.NoError(t, err)

	calls := transport.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, `{"title":"Push Relay Notification","body":"<b>Tom & Jerry</b> 👋"}`, string(calls[0].Payload))
}

func TestSender_NilSubscription(t *testing.T) {
	transport := newFakeTransport(http.StatusCreated)
	sender := NewSender(transport)

	delivery, err := sender.Send(context.Background(), nil, "Ping")
	assert.Nil(t, delivery)
	assert.ErrorIs(t, err, pushsubscription.ErrNoSubscription)
	assert.Empty(t, transport.Calls())
}

func TestSender_StatusClassification(t *testing.T) {
	tests := []struct {
		status int
		reason Reason
		code   cerr.Code
	}{
		{http.StatusOK, "", cerr.OK},
		{http.StatusCreated, "", cerr.OK},
		{http.StatusAccepted, "", cerr.OK},
		{http.StatusNotFound, ReasonExpired, cerr.FailedPrecondition},
		{http.StatusGone, ReasonExpired, cerr.FailedPrecondition},
		{http.StatusUnauthorized, ReasonUnauthorized, cerr.FailedPrecondition},
		{http.StatusForbidden, ReasonUnauthorized, cerr.FailedPrecondition},
		{http.StatusBadRequest, ReasonRejected, cerr.Unavailable},
		{http.StatusRequestEntityTooLarge, ReasonRejected, cerr.Unavailable},
		{http.StatusTooManyRequests, ReasonRejected, cerr.Unavailable},
		{http.StatusInternalServerError, ReasonRejected, cerr.Unavailable},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			sender := NewSender(newFakeTransport(tt.status))
			_, err := sender.Send(context.Background(), testSubscription(), "hi")
			if tt.reason == "" {
				assert.NoError(t, err)
				return
			}
			var derr *DeliveryError
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, tt.reason, derr.Reason)
			assert.Equal(t, tt.status, derr.StatusCode)
			assert.Equal(t, tt.code, derr.Code())
		})
	}
}

func TestSender_TransportFailureLeavesStoreUnchanged(t *testing.T) {
	ctx := context.Background()
	repo := repositoryimpl.NewMemoryRepository()
	require.NoError(t, repo.Register(ctx, testSubscription()))

	transport := newFakeTransport(0)
	transport.err = &DeliveryError{Reason: ReasonUnreachable, Endpoint: "https://push.example/abc", Err: errors.New("connection refused")}
	sender := NewSender(transport)

	sub, ok := repo.Current(ctx)
	require.True(t, ok)
	_, err := sender.Send(ctx, sub, "hi")

	var derr *DeliveryError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, ReasonUnreachable, derr.Reason)
	assert.Contains(t, derr.Error(), "connection refused")

	after, ok := repo.Current(ctx)
	require.True(t, ok)
	assert.Equal(t, testSubscription(), after)
}

func TestSender_UnexpectedFailures(t *testing.T) {
	t.Run("plain error", func(t *testing.T) {
		transport := newFakeTransport(0)
		transport.err = errors.New("something odd")
		_, err := NewSender(transport).Send(context.Background(), testSubscription(), "hi")

		var derr *DeliveryError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, ReasonInternal, derr.Reason)
		assert.Equal(t, cerr.Internal, derr.Code())
	})

	t.Run("panic", func(t *testing.T) {
		transport := newFakeTransport(0)
		transport.panics = "transport exploded"
		var err error
		assert.NotPanics(t, func() {
			_, err = NewSender(transport).Send(context.Background(), testSubscription(), "hi")
		})

		var derr *DeliveryError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, ReasonInternal, derr.Reason)
		assert.Contains(t, derr.Error(), "transport exploded")
	})

	t.Run("nil receipt", func(t *testing.T) {
		transport := &fakeTransport{}
		_, err := NewSender(transport).Send(context.Background(), testSubscription(), "hi")

		var derr *DeliveryError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, ReasonInternal, derr.Reason)
	})
}
