package accounts

import "time"

// DefaultPasswordResetTimeout matches the default reset link lifetime of
// one day.
const DefaultPasswordResetTimeout = 24 * time.Hour

// Settings is a plain Config implementation for wiring and tests.
type Settings struct {
	RegistrationMode     RegistrationMode
	VerifyMail           bool
	PasswordResetTimeout time.Duration
	HashSecret           string
}

var _ Config = Settings{}

func (s Settings) GetRegistrationMode() RegistrationMode {
	if s.RegistrationMode == "" {
		return RegisterVisitorsOpen
	}
	return s.RegistrationMode
}

func (s Settings) GetVerifyMail() bool {
	return s.VerifyMail
}

func (s Settings) GetPasswordResetTimeout() time.Duration {
	if s.PasswordResetTimeout <= 0 {
		return DefaultPasswordResetTimeout
	}
	return s.PasswordResetTimeout
}

func (s Settings) GetHashSecret() string {
	return s.HashSecret
}
