package pushnotification

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kazz187/pushrelay/internal/pushsubscription"
)

type deliverCall struct {
	Sub     pushsubscription.Subscription
	Payload []byte
}

type fakeTransport struct {
	mu      sync.Mutex
	calls   []deliverCall
	receipt *Receipt
	err     error
	panics  any
}

func newFakeTransport(status int) *fakeTransport {
	return &fakeTransport{receipt: &Receipt{StatusCode: status}}
}

func (f *fakeTransport) Deliver(_ context.Context, sub *pushsubscription.Subscription, payload []byte) (*Receipt, error) {
	f.mu.Lock()
	f.calls = append(f.calls, deliverCall{Sub: *sub, Payload: append([]byte(nil), payload...)})
	f.mu.Unlock()
	if f.panics != nil {
		panic(f.panics)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.receipt, nil
}

func (f *fakeTransport) Calls() []deliverCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]deliverCall(nil), f.calls...)
}

func decodePayload(t *testing.T, data []byte) NotificationPayload {
	t.Helper()
	var p NotificationPayload
	require.NoError(t, json.Unmarshal(data, &p))
	return p
}
