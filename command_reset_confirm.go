package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type ConfirmPasswordResetMessage struct {
	AccountID string `json:"id" doc:"Account being reset, from the route."`
	// Timestamp, Hash and Pass use pointers so a missing property can be
	// told apart from a zero value.
	Timestamp *int64  `json:"timestamp" doc:"Instant the reset link was issued."`
	Hash      *string `json:"hash" doc:"Reset hash from the reset link."`
	Pass      *string `json:"pass" doc:"New password."`

	OnResponse func(resp *ConfirmPasswordResetResponse)
}

func (e ConfirmPasswordResetMessage) Type() string { return "account.password_update" }

type ConfirmPasswordResetResponse struct {
	Account   *Account
	Activated bool
	Success   bool
}

type ConfirmPasswordResetHandler struct {
	repo      RepositoryManager
	config    Config
	tokenizer *ResetTokenizer
	machine   AccountStateMachine
	activity  ActivitySink
	logger    Logger
}

// NewConfirmPasswordResetHandler creates a handler with sane defaults. The
// reset tokenizer is keyed from the configured hash secret.
func NewConfirmPasswordResetHandler(repo RepositoryManager, config Config) *ConfirmPasswordResetHandler {
	return &ConfirmPasswordResetHandler{
		repo:      repo,
		config:    config,
		tokenizer: NewResetTokenizer([]byte(config.GetHashSecret())),
		activity:  noopActivitySink{},
		logger:    defLogger{},
	}
}

// WithTokenizer overrides the reset tokenizer (useful for tests).
func (h *ConfirmPasswordResetHandler) WithTokenizer(tokenizer *ResetTokenizer) *ConfirmPasswordResetHandler {
	if tokenizer != nil {
		h.tokenizer = tokenizer
	}
	return h
}

// WithStateMachine overrides the machine used for the activation transition.
func (h *ConfirmPasswordResetHandler) WithStateMachine(machine AccountStateMachine) *ConfirmPasswordResetHandler {
	h.machine = machine
	return h
}

// WithActivitySink sets the sink used to emit password reset events.
func (h *ConfirmPasswordResetHandler) WithActivitySink(sink ActivitySink) *ConfirmPasswordResetHandler {
	h.activity = normalizeActivitySink(sink)
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *ConfirmPasswordResetHandler) WithLogger(logger Logger) *ConfirmPasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ConfirmPasswordResetHandler) Execute(ctx context.Context, event ConfirmPasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset confirmation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ConfirmPasswordResetHandler) execute(ctx context.Context, event ConfirmPasswordResetMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	// fixed order so the first missing property is the one reported
	if event.Timestamp == nil {
		return NewInvalidRequestError(`missing required property "timestamp"`)
	}
	if event.Hash == nil {
		return NewInvalidRequestError(`missing required property "hash"`)
	}
	if event.Pass == nil {
		return NewInvalidRequestError(`missing required property "pass"`)
	}

	account, err := h.repo.Accounts().GetByID(ctx, event.AccountID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return NewNotFoundError("unrecognized account")
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve account for password update")
	}

	if err := h.tokenizer.ValidateResetToken(account, *event.Timestamp, *event.Hash, h.config.GetPasswordResetTimeout()); err != nil {
		return err
	}

	passwordHash, err := HashPassword(*event.Pass)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid new password provided")
	}

	// one-time activation: a blocked account that has never been accessed
	// becomes active on its first password set after email verification
	activate := account.IsBlocked() && account.LastAccessAt == nil && h.config.GetVerifyMail()

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := h.repo.Accounts().SetPasswordTx(ctx, tx, account.ID, passwordHash); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update account password")
		}
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to finalize password reset")
	}

	account.PasswordHash = passwordHash
	account.EmailVerified = true

	if activate {
		if _, err := h.stateMachine().Transition(
			ctx,
			ActorRef{ID: account.ID.String(), Type: "account"},
			account,
			AccountStatusActive,
			WithTransitionReason("password set after email verification"),
		); err != nil {
			return err
		}
	}

	h.recordActivity(ctx, account, activate)

	if event.OnResponse != nil {
		event.OnResponse(&ConfirmPasswordResetResponse{
			Account:   account,
			Activated: activate,
			Success:   true,
		})
	}

	return nil
}

func (h *ConfirmPasswordResetHandler) stateMachine() AccountStateMachine {
	if h.machine == nil {
		h.machine = NewAccountStateMachine(
			h.repo.Accounts(),
			WithStateMachineActivitySink(h.activity),
			WithStateMachineLogger(h.logger),
		)
	}
	return h.machine
}

func (h *ConfirmPasswordResetHandler) recordActivity(ctx context.Context, account *Account, activated bool) {
	event := ActivityEvent{
		EventType: ActivityEventResetSuccess,
		Actor: ActorRef{
			ID:   account.ID.String(),
			Type: "account",
		},
		AccountID: account.ID.String(),
		Metadata: map[string]any{
			"activated": activated,
		},
		OccurredAt: time.Now(),
	}

	if err := normalizeActivitySink(h.activity).Record(ctx, event); err != nil {
		h.logger.Error("activity sink error during password reset: %v", err)
	}
}
