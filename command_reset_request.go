package accounts

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
)

type RequestPasswordResetMessage struct {
	Name string `json:"name" example:"pepe.rone" doc:"Account username."`
	Mail string `json:"mail" example:"pepe.rone@example.com" doc:"Account email."`

	Payload    map[string]any `json:"-"`
	OnResponse func(resp *RequestPasswordResetResponse)
}

func (e RequestPasswordResetMessage) Type() string { return "account.password_reset" }

type RequestPasswordResetResponse struct {
	Account *Account
	Message string
	Success bool
}

type RequestPasswordResetHandler struct {
	repo     RepositoryManager
	events   Dispatcher
	activity ActivitySink
	logger   Logger
}

// NewRequestPasswordResetHandler creates a handler with sane defaults.
func NewRequestPasswordResetHandler(repo RepositoryManager) *RequestPasswordResetHandler {
	return &RequestPasswordResetHandler{
		repo:     repo,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

// WithDispatcher sets the dispatcher whose observers deliver the reset email.
func (h *RequestPasswordResetHandler) WithDispatcher(events Dispatcher) *RequestPasswordResetHandler {
	h.events = events
	return h
}

// WithActivitySink sets the sink used to emit reset request events.
func (h *RequestPasswordResetHandler) WithActivitySink(sink ActivitySink) *RequestPasswordResetHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *RequestPasswordResetHandler) WithLogger(logger Logger) *RequestPasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RequestPasswordResetHandler) Execute(ctx context.Context, event RequestPasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset request",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RequestPasswordResetHandler) execute(ctx context.Context, event RequestPasswordResetMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var account *Account
	var err error

	switch {
	case event.Name != "":
		account, err = h.repo.Accounts().FindByUsername(ctx, event.Name)
	case event.Mail != "":
		account, err = h.repo.Accounts().FindByEmail(ctx, event.Mail)
	default:
		return NewInvalidRequestError("missing name or mail")
	}

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return NewNotFoundError("unrecognized username or email address")
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account for password reset")
	}

	if account.IsBlocked() {
		return NewUnprocessableError("the user has not been activated or is blocked").
			WithTextCode(TextCodeAccountBlocked)
	}

	h.logger.Info("a password reset has been requested for %s (%s)", account.Username, account.Email)

	// observers own delivery, a transport failure fails the request
	if h.events != nil {
		err := h.events.Publish(ctx, LifecycleEvent{
			Name:    EventPasswordResetRequested,
			Account: account,
			Payload: event.Payload,
		})
		if err != nil {
			return err
		}
	}

	h.recordActivity(ctx, account)

	if event.OnResponse != nil {
		event.OnResponse(&RequestPasswordResetResponse{
			Account: account,
			Message: fmt.Sprintf("Password reset requested for %s (%s).", account.Username, account.Email),
			Success: true,
		})
	}

	return nil
}

func (h *RequestPasswordResetHandler) recordActivity(ctx context.Context, account *Account) {
	event := ActivityEvent{
		EventType: ActivityEventResetRequested,
		Actor: ActorRef{
			Type: "anonymous",
		},
		AccountID: account.ID.String(),
		Metadata: map[string]any{
			"username": account.Username,
		},
		OccurredAt: time.Now(),
	}

	if err := normalizeActivitySink(h.activity).Record(ctx, event); err != nil {
		h.logger.Error("activity sink error during password reset request: %v", err)
	}
}
