package accounts

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AccountStatus is the lifecycle status of an account
type AccountStatus = string

const (
	// AccountStatusNew is the status of an account that has not been persisted yet
	AccountStatusNew AccountStatus = "new"
	// AccountStatusActive is the status of an account that can authenticate
	AccountStatusActive AccountStatus = "active"
	// AccountStatusBlocked is the status of an account awaiting verification or approval
	AccountStatusBlocked AccountStatus = "blocked"
)

// RegistrationMode controls who may self register an account
type RegistrationMode = string

const (
	// RegisterAdminOnly disables self registration
	RegisterAdminOnly RegistrationMode = "admin_only"
	// RegisterVisitorsOpen lets visitors register without approval
	RegisterVisitorsOpen RegistrationMode = "visitors"
	// RegisterVisitorsNeedApproval lets visitors register pending admin approval
	RegisterVisitorsNeedApproval RegistrationMode = "visitors_admin_approval"
)

// Notification template keys handed to the Notifier
const (
	TemplateRegisterNoApprovalRequired = "register_no_approval_required"
	TemplateRegisterPendingApproval    = "register_pending_approval"
	TemplatePasswordReset              = "password_reset"
)

// Account is the account model
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:act"`
	ID            uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username      string         `bun:"username,notnull,unique" json:"username,omitempty"`
	Email         string         `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string         `bun:"password_hash" json:"password_hash,omitempty"`
	Status        AccountStatus  `bun:"status,notnull" json:"status,omitempty"`
	EmailVerified bool           `bun:"is_email_verified" json:"is_email_verified,omitempty"`
	Langcode      string         `bun:"langcode" json:"langcode,omitempty"`
	LastLoginAt   *time.Time     `bun:"last_login_at,nullzero" json:"last_login_at,omitempty"`
	LastAccessAt  *time.Time     `bun:"last_access_at,nullzero" json:"last_access_at,omitempty"`
	Metadata      map[string]any `bun:"metadata" json:"metadata,omitempty"`
	CreatedAt     *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time     `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// EnsureStatus normalizes a missing status to new
func (a *Account) EnsureStatus() {
	if a.Status == "" {
		a.Status = AccountStatusNew
	}
}

// IsNew reports whether the account has been assigned an ID yet
func (a *Account) IsNew() bool {
	return a.ID == uuid.Nil
}

// IsActive reports whether the account may authenticate
func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}

// IsBlocked reports whether the account is blocked
func (a *Account) IsBlocked() bool {
	return a.Status == AccountStatusBlocked
}

// HasPassword reports whether a password hash has been set
func (a *Account) HasPassword() bool {
	return a.PasswordHash != ""
}

// LastLoginUnix returns the last login as unix seconds, 0 when the
// account never logged in
func (a *Account) LastLoginUnix() int64 {
	if a.LastLoginAt == nil {
		return 0
	}
	return a.LastLoginAt.Unix()
}

// PreferredLangcode returns the language used for notifications
func (a *Account) PreferredLangcode() string {
	if a.Langcode == "" {
		return "en"
	}
	return a.Langcode
}

// AddMetadata will append information to a metadata attribute
func (a *Account) AddMetadata(key string, val any) *Account {
	if a.Metadata == nil {
		a.Metadata = make(map[string]any)
	}
	a.Metadata[key] = val
	return a
}

// ValidUsername rejects empty names and names with leading whitespace
func ValidUsername(name string) bool {
	if name == "" {
		return false
	}
	return strings.TrimLeft(name, " \t\n\r") == name
}

func prepareAccountDefaults(record *Account) {
	if record == nil {
		return
	}
	record.EnsureStatus()
	if record.Langcode == "" {
		record.Langcode = "en"
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}
