package accounts

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type RegisterAccountMessage struct {
	ID       string `json:"id" doc:"Must be empty, only new accounts are accepted."`
	Username string `json:"username" example:"pepe.rone" doc:"Account username."`
	Email    string `json:"email" example:"pepe.rone@example.com" doc:"Account email."`
	Password string `json:"password" doc:"Required unless email verification is enabled."`
	Langcode string `json:"langcode" example:"en" doc:"Preferred notification language."`

	// ActorIsAnonymous is resolved by the transport boundary, only
	// unauthenticated callers may self register.
	ActorIsAnonymous bool           `json:"-"`
	UseHashid        bool           `json:"-"`
	Payload          map[string]any `json:"-"`
	OnResponse       func(resp *RegisterAccountResponse)
}

func (e RegisterAccountMessage) Type() string { return "account.register" }

type RegisterAccountResponse struct {
	Account *Account
	Success bool
}

type RegisterAccountHandler struct {
	repo     RepositoryManager
	config   Config
	events   Dispatcher
	activity ActivitySink
	logger   Logger
}

// NewRegisterAccountHandler creates a handler with sane defaults.
func NewRegisterAccountHandler(repo RepositoryManager, config Config) *RegisterAccountHandler {
	return &RegisterAccountHandler{
		repo:     repo,
		config:   config,
		activity: noopActivitySink{},
		logger:   defLogger{},
	}
}

// WithDispatcher sets the dispatcher used for lifecycle events.
func (h *RegisterAccountHandler) WithDispatcher(events Dispatcher) *RegisterAccountHandler {
	h.events = events
	return h
}

// WithActivitySink sets the sink used to emit registration events.
func (h *RegisterAccountHandler) WithActivitySink(sink ActivitySink) *RegisterAccountHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *RegisterAccountHandler) WithLogger(logger Logger) *RegisterAccountHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RegisterAccountHandler) Execute(ctx context.Context, event RegisterAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterAccountHandler) execute(ctx context.Context, event RegisterAccountMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	mode := h.config.GetRegistrationMode()
	verifyMail := h.config.GetVerifyMail()

	err := CheckRegistrationEligibility(
		event.ActorIsAnonymous,
		event.ID == "",
		event.Password != "",
		mode,
		verifyMail,
	)
	if err != nil {
		return err
	}

	username := getUsername(event.Username, event.Email)
	if !ValidUsername(username) {
		return NewInvalidRequestError("a username must not be empty or start with whitespace").
			WithMetadata(map[string]any{"username": username})
	}

	account := &Account{
		Username: username,
		Email:    event.Email,
		Langcode: event.Langcode,
		Status:   DecideInitialStatus(mode, verifyMail),
	}

	if !verifyMail {
		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}
		account.PasswordHash = hash
	}

	if event.UseHashid {
		if id, err := hashid.NewUUID(event.Email); err == nil {
			account.ID = id
		}
	}

	// observers may veto the registration before anything is persisted
	if err := h.publish(ctx, EventRegistrationValidate, account, event.Payload); err != nil {
		return err
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		created, err := h.repo.Accounts().RegisterTx(ctx, tx, account)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create account")
		}
		account = created
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "account registration transaction failed")
	}

	// the account is committed, a failing observer can no longer abort
	if err := h.publish(ctx, EventRegistrationComplete, account, event.Payload); err != nil {
		h.logger.Error("registration complete observer error: %v", err)
	}

	h.recordActivity(ctx, account)

	if event.OnResponse != nil {
		event.OnResponse(&RegisterAccountResponse{
			Account: account,
			Success: true,
		})
	}

	return nil
}

func (h *RegisterAccountHandler) publish(ctx context.Context, name LifecycleEventName, account *Account, payload map[string]any) error {
	if h.events == nil {
		return nil
	}
	return h.events.Publish(ctx, LifecycleEvent{
		Name:    name,
		Account: account,
		Payload: payload,
	})
}

func (h *RegisterAccountHandler) recordActivity(ctx context.Context, account *Account) {
	event := ActivityEvent{
		EventType: ActivityEventAccountRegistered,
		Actor: ActorRef{
			Type: "anonymous",
		},
		AccountID: account.ID.String(),
		ToStatus:  account.Status,
		Metadata: map[string]any{
			"username": account.Username,
		},
		OccurredAt: time.Now(),
	}

	if err := normalizeActivitySink(h.activity).Record(ctx, event); err != nil {
		h.logger.Error("activity sink error during registration: %v", err)
	}
}

func getUsername(username, email string) string {
	if username != "" {
		return username
	}

	if strings.Contains(email, "@") {
		username = strings.Split(email, "@")[0]
	}

	return username
}
