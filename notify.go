package accounts

import (
	"context"
	"fmt"
)

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, string, *Account, string) error {
	return nil
}

func normalizeNotifier(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}

// LogNotifier writes the notification to stdout instead of sending mail.
// Useful for development wiring before a transport exists.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, template string, account *Account, langcode string) error {
	fmt.Println("====== SENDING EMAIL NOTIFICATION =======")
	fmt.Printf("to: %s (%s)\n", account.Email, langcode)
	fmt.Printf("template: %s\n", template)
	return nil
}

// NewPasswordResetObserver sends the password_reset notification when a
// reset has been requested. A transport failure is surfaced as an
// unprocessable delivery error so the request fails instead of silently
// dropping the email.
func NewPasswordResetObserver(notifier Notifier) Observer {
	notifier = normalizeNotifier(notifier)
	return ObserverFunc(func(ctx context.Context, event LifecycleEvent) error {
		if event.Account == nil {
			return nil
		}
		if err := notifier.Notify(ctx, TemplatePasswordReset, event.Account, event.Account.PreferredLangcode()); err != nil {
			return NewDeliveryError(err)
		}
		return nil
	})
}

// NewRegistrationNotificationObserver sends the post-registration
// notification matching the configured registration mode. Runs on
// registration-complete, so failures are advisory.
func NewRegistrationNotificationObserver(notifier Notifier, config Config) Observer {
	notifier = normalizeNotifier(notifier)
	return ObserverFunc(func(ctx context.Context, event LifecycleEvent) error {
		if event.Account == nil {
			return nil
		}

		template, ok := RegistrationNotificationTemplate(config.GetRegistrationMode(), config.GetVerifyMail())
		if !ok {
			return nil
		}

		if err := notifier.Notify(ctx, template, event.Account, event.Account.PreferredLangcode()); err != nil {
			return NewDeliveryError(err)
		}
		return nil
	})
}

// RegisterDefaultObservers wires the stock email observers into a dispatcher.
func RegisterDefaultObservers(dispatcher Dispatcher, notifier Notifier, config Config) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(EventPasswordResetRequested, NewPasswordResetObserver(notifier))
	dispatcher.Subscribe(EventRegistrationComplete, NewRegistrationNotificationObserver(notifier, config))
}
