package accounts_test

import (
	"context"
	"errors"
	"testing"

	accounts "github.com/goliatone/go-accounts"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPasswordResetObserverSendsResetTemplate(t *testing.T) {
	account := &accounts.Account{
		ID:       uuid.New(),
		Email:    "pepe.rone@example.com",
		Langcode: "es",
	}

	notifier := &MockNotifier{}
	notifier.On("Notify", context.Background(), accounts.TemplatePasswordReset, account, "es").
		Return(nil)

	observer := accounts.NewPasswordResetObserver(notifier)
	err := observer.Handle(context.Background(), accounts.LifecycleEvent{
		Name:    accounts.EventPasswordResetRequested,
		Account: account,
	})

	require.NoError(t, err)
	notifier.AssertExpectations(t)
}

func TestPasswordResetObserverWrapsTransportFailure(t *testing.T) {
	account := &accounts.Account{ID: uuid.New(), Email: "pepe.rone@example.com"}

	notifier := &MockNotifier{}
	notifier.On("Notify", context.Background(), accounts.TemplatePasswordReset, account, "en").
		Return(errors.New("smtp connect refused"))

	observer := accounts.NewPasswordResetObserver(notifier)
	err := observer.Handle(context.Background(), accounts.LifecycleEvent{
		Name:    accounts.EventPasswordResetRequested,
		Account: account,
	})

	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, accounts.TextCodeDeliveryFailed, richErr.TextCode)
}

func TestPasswordResetObserverSkipsNilAccount(t *testing.T) {
	notifier := &MockNotifier{}
	observer := accounts.NewPasswordResetObserver(notifier)

	err := observer.Handle(context.Background(), accounts.LifecycleEvent{
		Name: accounts.EventPasswordResetRequested,
	})

	require.NoError(t, err)
	notifier.AssertNotCalled(t, "Notify",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRegistrationNotificationObserverTemplates(t *testing.T) {
	tests := []struct {
		name     string
		config   accounts.Settings
		template string
		sends    bool
	}{
		{
			name:     "open with verification",
			config:   accounts.Settings{RegistrationMode: accounts.RegisterVisitorsOpen, VerifyMail: true},
			template: accounts.TemplateRegisterNoApprovalRequired,
			sends:    true,
		},
		{
			name:     "pending approval",
			config:   accounts.Settings{RegistrationMode: accounts.RegisterVisitorsNeedApproval},
			template: accounts.TemplateRegisterPendingApproval,
			sends:    true,
		},
		{
			name:   "open without verification sends nothing",
			config: accounts.Settings{RegistrationMode: accounts.RegisterVisitorsOpen},
			sends:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account := &accounts.Account{ID: uuid.New(), Email: "neo@example.com"}

			notifier := &MockNotifier{}
			if tt.sends {
				notifier.On("Notify", context.Background(), tt.template, account, "en").
					Return(nil)
			}

			observer := accounts.NewRegistrationNotificationObserver(notifier, tt.config)
			err := observer.Handle(context.Background(), accounts.LifecycleEvent{
				Name:    accounts.EventRegistrationComplete,
				Account: account,
			})

			require.NoError(t, err)
			notifier.AssertExpectations(t)
			if !tt.sends {
				notifier.AssertNotCalled(t, "Notify",
					mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestRegisterDefaultObservers(t *testing.T) {
	account := &accounts.Account{ID: uuid.New(), Email: "neo@example.com"}
	config := accounts.Settings{
		RegistrationMode: accounts.RegisterVisitorsNeedApproval,
	}

	notifier := &MockNotifier{}
	notifier.On("Notify", context.Background(), accounts.TemplateRegisterPendingApproval, account, "en").
		Return(nil)
	notifier.On("Notify", context.Background(), accounts.TemplatePasswordReset, account, "en").
		Return(nil)

	dispatcher := accounts.NewDispatcher()
	accounts.RegisterDefaultObservers(dispatcher, notifier, config)

	err := dispatcher.Publish(context.Background(), accounts.LifecycleEvent{
		Name:    accounts.EventRegistrationComplete,
		Account: account,
	})
	require.NoError(t, err)

	err = dispatcher.Publish(context.Background(), accounts.LifecycleEvent{
		Name:    accounts.EventPasswordResetRequested,
		Account: account,
	})
	require.NoError(t, err)

	notifier.AssertExpectations(t)
}
