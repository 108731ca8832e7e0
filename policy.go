package accounts

// CheckRegistrationEligibility applies the self-registration rules in order,
// first failure wins. It is pure validation, no side effects.
func CheckRegistrationEligibility(actorIsAnonymous, accountIsNew, hasPassword bool, mode RegistrationMode, verifyMail bool) error {
	if !accountIsNew {
		return NewInvalidRequestError("an ID has been set and only new accounts can be registered")
	}

	if !actorIsAnonymous {
		return NewForbiddenError("only anonymous callers can register an account")
	}

	if mode == RegisterAdminOnly {
		return NewForbiddenError("you cannot register a new account").
			WithTextCode(TextCodeRegistrationClosed)
	}

	if !verifyMail && !hasPassword {
		return NewUnprocessableError("no password provided")
	}

	if verifyMail && hasPassword {
		return NewUnprocessableError("a password cannot be specified, it will be generated after email verification")
	}

	return nil
}

// DecideInitialStatus picks the status of a freshly registered account:
// active only when visitors may register and no email verification is
// required, blocked otherwise.
func DecideInitialStatus(mode RegistrationMode, verifyMail bool) AccountStatus {
	if mode == RegisterVisitorsOpen && !verifyMail {
		return AccountStatusActive
	}
	return AccountStatusBlocked
}

// RegistrationNotificationTemplate selects the template the Notifier should
// send after a completed registration. The second return is false when no
// notification is due.
func RegistrationNotificationTemplate(mode RegistrationMode, verifyMail bool) (string, bool) {
	switch {
	case mode == RegisterVisitorsNeedApproval:
		return TemplateRegisterPendingApproval, true
	case mode == RegisterVisitorsOpen && verifyMail:
		return TemplateRegisterNoApprovalRequired, true
	default:
		return "", false
	}
}
