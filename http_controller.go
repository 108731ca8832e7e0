package accounts

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// RegisterAccountRoutes wires the account resource endpoints into a router.
func RegisterAccountRoutes[T any](app router.Router[T], opts ...AccountsControllerOption) {

	controller := NewAccountsController(opts...)

	app.Post(controller.Routes.Register, controller.RegistrationCreate).
		SetName("account-register.post")

	app.Post(controller.Routes.PasswordReset, controller.PasswordResetRequest).
		SetName("account-pwd-reset.post")

	app.Patch(fmt.Sprintf("%s/:id/%s", controller.Routes.AccountPrefix, controller.Routes.PasswordUpdate), controller.PasswordUpdate).
		SetName("account-pwd-update.patch")
}

type AccountsControllerRoutes struct {
	AccountPrefix  string
	Register       string
	PasswordReset  string
	PasswordUpdate string
}

type AccountsController struct {
	Debug      bool
	UseHashid  bool
	Logger     Logger
	Repo       RepositoryManager
	Config     Config
	Events     Dispatcher
	Activity   ActivitySink
	Tokenizer  *ResetTokenizer
	SessionKey string
	Routes     *AccountsControllerRoutes
}

type AccountsControllerOption func(*AccountsController) *AccountsController

func NewAccountsController(opts ...AccountsControllerOption) *AccountsController {
	c := &AccountsController{
		Logger:     defLogger{},
		Activity:   noopActivitySink{},
		SessionKey: DefaultSessionContextKey,
		Routes: &AccountsControllerRoutes{
			AccountPrefix:  "/user",
			Register:       "/user/register",
			PasswordReset:  "/user/password/reset",
			PasswordUpdate: "password/update",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in accounts controller...")
	}

	if c.Config == nil {
		panic("Missing Config in accounts controller...")
	}

	return c
}

// WithControllerRepo sets the repository manager.
func WithControllerRepo(repo RepositoryManager) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Repo = repo
		return c
	}
}

// WithControllerConfig sets the account policy configuration.
func WithControllerConfig(config Config) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Config = config
		return c
	}
}

// WithControllerDispatcher sets the lifecycle event dispatcher.
func WithControllerDispatcher(events Dispatcher) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Events = events
		return c
	}
}

// WithControllerActivitySink sets the audit sink.
func WithControllerActivitySink(sink ActivitySink) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Activity = normalizeActivitySink(sink)
		return c
	}
}

// WithControllerLogger sets the logger.
func WithControllerLogger(logger Logger) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

// WithControllerTokenizer overrides the reset tokenizer.
func WithControllerTokenizer(tokenizer *ResetTokenizer) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Tokenizer = tokenizer
		return c
	}
}

// WithControllerDebug toggles payload debugging output.
func WithControllerDebug(debug bool) AccountsControllerOption {
	return func(c *AccountsController) *AccountsController {
		c.Debug = debug
		return c
	}
}

// RegistrationPayload is the registration request body
type RegistrationPayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Langcode string `json:"langcode"`
}

// Validate will run validation rules
func (r RegistrationPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Username, validation.Length(0, 200)),
		validation.Field(&r.Password, validation.Length(0, 100)),
	)
}

func (a *AccountsController) RegistrationCreate(ctx router.Context) error {
	payload := new(RegistrationPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register account parse payload: %v", err)
		return a.renderError(ctx, NewInvalidRequestError("failed to parse request body"))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register account validate payload: %v", err)
		return a.renderError(ctx, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration payload"))
	}

	if a.Debug {
		fmt.Println("======= ACCOUNT REGISTER ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("===============================")
	}

	var resp *RegisterAccountResponse
	msg := RegisterAccountMessage{
		ID:               payload.ID,
		Username:         payload.Username,
		Email:            payload.Email,
		Password:         payload.Password,
		Langcode:         payload.Langcode,
		ActorIsAnonymous: IsAnonymousRequest(ctx, a.SessionKey),
		UseHashid:        a.UseHashid,
		Payload: map[string]any{
			"username": payload.Username,
			"email":    payload.Email,
		},
		OnResponse: func(r *RegisterAccountResponse) {
			resp = r
		},
	}

	handler := NewRegisterAccountHandler(a.Repo, a.Config).
		WithDispatcher(a.Events).
		WithActivitySink(a.Activity).
		WithLogger(a.Logger)

	if err := handler.Execute(ctx.Context(), msg); err != nil {
		a.Logger.Error("register account error: %v", err)
		return a.renderError(ctx, err)
	}

	return ctx.JSON(router.StatusCreated, accountDocument(resp.Account))
}

// PasswordResetRequestPayload is the reset request body
type PasswordResetRequestPayload struct {
	Name string `json:"name"`
	Mail string `json:"mail"`
}

// Validate will run validation rules
func (r PasswordResetRequestPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Mail, is.Email),
	)
}

func (a *AccountsController) PasswordResetRequest(ctx router.Context) error {
	payload := new(PasswordResetRequestPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("password reset parse payload: %v", err)
		return a.renderError(ctx, NewInvalidRequestError("failed to parse request body"))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("password reset validate payload: %v", err)
		return a.renderError(ctx, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password reset payload"))
	}

	var resp *RequestPasswordResetResponse
	msg := RequestPasswordResetMessage{
		Name: payload.Name,
		Mail: payload.Mail,
		Payload: map[string]any{
			"name": payload.Name,
			"mail": payload.Mail,
		},
		OnResponse: func(r *RequestPasswordResetResponse) {
			resp = r
		},
	}

	handler := NewRequestPasswordResetHandler(a.Repo).
		WithDispatcher(a.Events).
		WithActivitySink(a.Activity).
		WithLogger(a.Logger)

	if err := handler.Execute(ctx.Context(), msg); err != nil {
		a.Logger.Error("password reset request error: %v", err)
		return a.renderError(ctx, err)
	}

	return ctx.JSON(router.StatusAccepted, map[string]any{
		"meta": map[string]any{
			"message": resp.Message,
		},
	})
}

// PasswordUpdatePayload is the reset confirmation body
type PasswordUpdatePayload struct {
	Timestamp *int64  `json:"timestamp"`
	Hash      *string `json:"hash"`
	Pass      *string `json:"pass"`
}

func (a *AccountsController) PasswordUpdate(ctx router.Context) error {
	payload := new(PasswordUpdatePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("password update parse payload: %v", err)
		return a.renderError(ctx, NewInvalidRequestError("failed to parse request body"))
	}

	var resp *ConfirmPasswordResetResponse
	msg := ConfirmPasswordResetMessage{
		AccountID: ctx.Param("id", ""),
		Timestamp: payload.Timestamp,
		Hash:      payload.Hash,
		Pass:      payload.Pass,
		OnResponse: func(r *ConfirmPasswordResetResponse) {
			resp = r
		},
	}

	handler := NewConfirmPasswordResetHandler(a.Repo, a.Config).
		WithActivitySink(a.Activity).
		WithLogger(a.Logger)

	if a.Tokenizer != nil {
		handler.WithTokenizer(a.Tokenizer)
	}

	if err := handler.Execute(ctx.Context(), msg); err != nil {
		a.Logger.Error("password update error: %v", err)
		return a.renderError(ctx, err)
	}

	return ctx.JSON(router.StatusOK, accountDocument(resp.Account))
}

func (a *AccountsController) renderError(ctx router.Context, err error) error {
	status := HTTPStatusFromError(err)

	detail := "internal server error"
	code := ""
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		detail = richErr.Message
		code = richErr.TextCode
	}

	return ctx.JSON(status, map[string]any{
		"errors": []map[string]any{
			{
				"status": status,
				"detail": detail,
				"code":   code,
			},
		},
	})
}

func accountDocument(account *Account) map[string]any {
	attributes := map[string]any{
		"username":          account.Username,
		"email":             account.Email,
		"status":            account.Status,
		"langcode":          account.PreferredLangcode(),
		"is_email_verified": account.EmailVerified,
	}

	if account.CreatedAt != nil {
		attributes["created_at"] = account.CreatedAt
	}

	return map[string]any{
		"data": map[string]any{
			"type":       "user--user",
			"id":         account.ID.String(),
			"attributes": attributes,
		},
	}
}
