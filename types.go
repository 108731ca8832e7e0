package accounts

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds the account policy options
type Config interface {
	GetRegistrationMode() RegistrationMode
	GetVerifyMail() bool
	GetPasswordResetTimeout() time.Duration
	GetHashSecret() string
}

// PasswordHasher hashes and checks account passwords
type PasswordHasher interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// Notifier delivers a templated notification to an account. Implementations
// own transport and retry concerns, callers only pick the template key.
type Notifier interface {
	Notify(ctx context.Context, template string, account *Account, langcode string) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, template string, account *Account, langcode string) error

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, template string, account *Account, langcode string) error {
	if f == nil {
		return nil
	}
	return f(ctx, template, account, langcode)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] ACCOUNTS "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] ACCOUNTS "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
