package pushnotification

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/kazz187/pushrelay/internal/config"
	"github.com/kazz187/pushrelay/internal/pushsubscription"
	"github.com/kazz187/pushrelay/pkg/cerr"
	"github.com/kazz187/pushrelay/pkg/clog"
)

const (
	NoSubscriptionMessage = "No subscription available"

	maxRequestBody = 64 << 10
)

type SubscribeResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

type NotifyRequest struct {
	Message *string `json:"message"`
}

type NotifyResponse struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type VAPIDPublicKeyResponse struct {
	PublicKey string `json:"public_key"`
}

type Server struct {
	vapidEnv *config.VAPIDEnv
	repo     pushsubscription.Repository
	sender   *Sender
}

func NewServer(vapidEnv *config.VAPIDEnv, repo pushsubscription.Repository, sender *Sender) *Server {
	return &Server{
		vapidEnv: vapidEnv,
		repo:     repo,
		sender:   sender,
	}
}

// Routes mounts the push endpoints. r must run the cerr JSON middleware.
func (s *Server) Routes(r chi.Router) {
	r.Get("/vapid-public-key", s.GetVAPIDPublicKey)
	r.Post("/subscribe", s.Subscribe)
	r.Post("/notify", s.Notify)
}

func (s *Server) GetVAPIDPublicKey(_ http.ResponseWriter, r *http.Request) {
	if s.vapidEnv.VAPIDPublicKey == "" {
		cerr.SetNewJSONError(r.Context(), cerr.FailedPrecondition, "VAPID keys not configured", nil)
		return
	}
	cerr.SetJSONResponse(r.Context(), &VAPIDPublicKeyResponse{PublicKey: s.vapidEnv.VAPIDPublicKey})
}

// Subscribe stores the posted subscription, replacing any previous one,
// and greets it right away. A failed greeting does not undo the
// registration.
func (s *Server) Subscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var sub pushsubscription.Subscription
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&sub); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid subscription payload", err)
		return
	}
	sub.ID = ulid.Make().String()
	sub.RegisteredAt = time.Now()

	clog.AddAttribute(ctx, "subscription_id", sub.ID)
	slog.InfoContext(ctx, "push subscription: registration received", "endpoint", sub.Endpoint)
	if err := s.repo.Register(ctx, &sub); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	if _, err := s.sender.Send(ctx, &sub, GreetingMessage); err != nil {
		cerr.SetJSONResponse(ctx, &SubscribeResponse{
			Message: "Subscription saved but greeting failed",
			Error:   err.Error(),
		})
		return
	}
	cerr.SetJSONResponse(ctx, &SubscribeResponse{Message: "Subscription saved & Hello World sent!"})
}

// Notify pushes a message to the stored subscription. The message comes
// from the "message" query parameter, then a JSON body, then DefaultMessage.
func (s *Server) Notify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sub, ok := s.repo.Current(ctx)
	if !ok {
		slog.InfoContext(ctx, "push notification: notify without subscription")
		cerr.SetJSONResponse(ctx, &NotifyResponse{Error: NoSubscriptionMessage})
		return
	}

	message, err := notifyMessage(w, r)
	if err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid notify payload", err)
		return
	}

	if _, err := s.sender.Send(ctx, sub, message); err != nil {
		cerr.SetJSONError(ctx, toCerr(err))
		return
	}
	cerr.SetJSONResponse(ctx, &NotifyResponse{Message: fmt.Sprintf("Notification sent: %s", message)})
}

func notifyMessage(w http.ResponseWriter, r *http.Request) (string, error) {
	if q := r.URL.Query(); q.Has("message") {
		return q.Get("message"), nil
	}
	var req NotifyRequest
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req)
	switch {
	case errors.Is(err, io.EOF):
		return DefaultMessage, nil
	case err != nil:
		return "", err
	case req.Message == nil:
		return DefaultMessage, nil
	}
	return *req.Message, nil
}

func toCerr(err error) error {
	var derr *DeliveryError
	if errors.As(err, &derr) {
		return cerr.NewError(derr.Code(), fmt.Sprintf("notification failed: %s", derr.Reason), derr)
	}
	if errors.Is(err, pushsubscription.ErrNoSubscription) {
		return cerr.NewError(cerr.FailedPrecondition, NoSubscriptionMessage, err)
	}
	return cerr.NewError(cerr.Internal, "notification failed", err)
}
