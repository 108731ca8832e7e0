package accounts_test

import (
	"context"
	"errors"
	"testing"

	accounts "github.com/goliatone/go-accounts"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRegisterAccountOpenRegistration(t *testing.T) {
	repo := &MockRepositoryManager{}
	accts := &MockAccounts{}
	repo.On("Accounts").Return(accts)
	runTxDirect(repo)

	createdID := uuid.New()
	accts.On("RegisterTx", mock.Anything, mock.Anything, mock.MatchedBy(func(a *accounts.Account) bool {
		return a.Username == "pepe.rone" &&
			a.Email == "pepe.rone@example.com" &&
			a.Status == accounts.AccountStatusActive &&
			a.PasswordHash != "" &&
			a.PasswordHash != "secret-pass"
	})).Return(&accounts.Account{
		ID:       createdID,
		Username: "pepe.rone",
		Email:    "pepe.rone@example.com",
		Status:   accounts.AccountStatusActive,
	}, nil)

	sink := &capturingSink{}
	handler := accounts.NewRegisterAccountHandler(repo, accounts.Settings{
		RegistrationMode: accounts.RegisterVisitorsOpen,
	}).WithActivitySink(sink).WithLogger(testLogger{})

	var resp *accounts.RegisterAccountResponse
	err := handler.Execute(context.Background(), accounts.RegisterAccountMessage{
		Username:         "pepe.rone",
		Email:            "pepe.rone@example.com",
		Password:         "secret-pass",
		ActorIsAnonymous: true,
		OnResponse: func(r *accounts.RegisterAccountResponse) {
			resp = r
		},
	})

	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.True(t, resp.Success)
	assert.Equal(t, createdID, resp.Account.ID)

	require.Len(t, sink.events, 1)
	assert.Equal(t, accounts.ActivityEventAccountRegistered, sink.events[0].EventType)
	assert.Equal(t, accounts.AccountStatusActive, sink.events[0].ToStatus)

	accts.AssertExpectations(t)
}

func TestRegisterAccountVerificationFlowStartsBlocked(t *testing.T) {
	repo := &MockRepositoryManager{}
	accts := &MockAccounts{}
	repo.On("Accounts").Return(accts)
	runTxDirect(repo)

	accts.On("RegisterTx", mock.Anything, mock.Anything, mock.MatchedBy(func(a *accounts.Account) bool {
		return a.Status == accounts.AccountStatusBlocked && a.PasswordHash == ""
	})).Return(&accounts.Account{
		ID:       uuid.New(),
		Username: "trinity",
		Email:    "trinity@example.com",
		Status:   accounts.AccountStatusBlocked,
	}, nil)

	handler := accounts.NewRegisterAccountHandler(repo, accounts.Settings{
		RegistrationMode: accounts.RegisterVisitorsOpen,
		VerifyMail:       true,
	}).WithLogger(testLogger{})

	err := handler.Execute(context.Background(), accounts.RegisterAccountMessage{
		Username:         "trinity",
		Email:            "trinity@example.com",
		ActorIsAnonymous: true,
	})

	require.NoError(t, err)
	accts.AssertExpectations(t)
}

func TestRegisterAccountUsernameFallsBackToEmailLocalPart(t *testing.T) {
	repo := &MockRepositoryManager{}
	accts := &MockAccounts{}
	repo.On("Accounts").Return(accts)
	runTxDirect(repo)

	accts.On("RegisterTx", mock.Anything, mock.Anything, mock.MatchedBy(func(a *accounts.Account) bool {
		return a.Username == "neo"
	})).Return(&accounts.Account{ID: uuid.New(), Username: "neo"}, nil)

	handler := accounts.NewRegisterAccountHandler(repo, accounts.Settings{
		RegistrationMode: accounts.RegisterVisitorsOpen,
	}).WithLogger(testLogger{})

	err := handler.Execute(context.Background(), accounts.RegisterAccountMessage{
		Email:            "neo@example.com",
		Password:         "follow-the-white-rabbit",
		ActorIsAnonymous: true,
	})

	require.NoError(t, err)
	accts.AssertExpectations(t)
}

func TestRegisterAccountRejectsExistingID(t *testing.T) {
	repo := &MockRepositoryManager{}
	handler := accounts.NewRegisterAccountHandler(repo, accounts.Settings{
		RegistrationMode: accounts.RegisterVisitorsOpen,
	}).WithLogger(testLogger{})

	err := handler.Execute(context.Background(), accounts.RegisterAccountMessage{
		ID:               uuid.NewString(),
		Email:            "neo@example.com",
		Password:         "follow-the-white-rabbit",
		ActorIsAnonymous: true,
	})

	require.Error(t, err)
	assert.Equal(t, router.StatusBadRequest, accounts.HTTPStatusFromError(err))
	repo.AssertNotCalled(t, "RunInTx", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegisterAccountRejectsAuthenticatedCaller(t *testing.T) {
	repo := &MockRepositoryManager{}
	handler := accounts.NewRegisterAccountHandler(repo, accounts.Settings{
		RegistrationMode: accounts.RegisterVisitorsOpen,
	}).WithLogger(testLogger{})

	err := handler.Execute(context.Background(), accounts.RegisterAccountMessage{
		Email:            "neo@example.com",
		Password:         "follow-the-white-rabbit",
		ActorIsAnonymous: false,
	})

	require.Error(t, err)
	assert.Equal(t, router.StatusForbidden, accounts.HTTPStatusFromError(err))
}

func TestRegisterAccountClosedRegistration(t *testing.T) {
	repo := &MockRepositoryManager{}
	handler := accounts.NewRegisterAccountHandler(repo, accounts.Settings{
		RegistrationMode: accounts.RegisterAdminOnly,
	}).WithLogger(testLogger{})

	err := handler.Execute(context.Background(), accounts.RegisterAccountMessage{
		Email:            "neo@example.com",
		Password:         "follow-the-white-rabbit",
		ActorIsAnonymous: true,
	})

	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, accounts.TextCodeRegistrationClosed, richErr.TextCode)
	assert.Equal(t, router.StatusForbidden, accounts.HTTPStatusFromError(err))
}

func TestRegisterAccountValidateObserverVetoAbortsPersistence(t *testing.T) {
	repo := &MockRepositoryManager{}

	dispatcher := accounts.NewDispatcher()
	dispatcher.Subscribe(accounts.EventRegistrationValidate, accounts.ObserverFunc(
		func(ctx context.Context, event accounts.LifecycleEvent) error {
			return errors.New("username is reserved")
		}))

	handler := accounts.NewRegisterAccountHandler(repo, accounts.Settings{
		RegistrationMode: accounts.RegisterVisitorsOpen,
	}).WithDispatcher(dispatcher).WithLogger(testLogger{})

	err := handler.Execute(context.Background(), accounts.RegisterAccountMessage{
		Username:         "root",
		Email:            "root@example.com",
		Password:         "hunter2-hunter2",
		ActorIsAnonymous: true,
	})

	require.Error(t, err)
	assert.True(t, accounts.IsObserverRejection(err))
	assert.Equal(t, router.StatusBadRequest, accounts.HTTPStatusFromError(err))
	repo.AssertNotCalled(t, "RunInTx", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegisterAccountCompleteObserverErrorIsAdvisory(t *testing.T) {
	repo := &MockRepositoryManager{}
	accts := &MockAccounts{}
	repo.On("Accounts").Return(accts)
	runTxDirect(repo)

	accts.On("RegisterTx", mock.Anything, mock.Anything, mock.Anything).
		Return(&accounts.Account{ID: uuid.New(), Username: "neo"}, nil)

	dispatcher := accounts.NewDispatcher()
	dispatcher.Subscribe(accounts.EventRegistrationComplete, accounts.ObserverFunc(
		func(ctx context.Context, event accounts.LifecycleEvent) error {
			return errors.New("welcome email bounced")
		}))

	handler := accounts.NewRegisterAccountHandler(repo, accounts.Settings{
		RegistrationMode: accounts.RegisterVisitorsOpen,
	}).WithDispatcher(dispatcher).WithLogger(testLogger{})

	var resp *accounts.RegisterAccountResponse
	err := handler.Execute(context.Background(), accounts.RegisterAccountMessage{
		Email:            "neo@example.com",
		Password:         "follow-the-white-rabbit",
		ActorIsAnonymous: true,
		OnResponse: func(r *accounts.RegisterAccountResponse) {
			resp = r
		},
	})

	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.True(t, resp.Success)
}

func TestRegisterAccountPersistFailureMapsToConflict(t *testing.T) {
	repo := &MockRepositoryManager{}
	accts := &MockAccounts{}
	repo.On("Accounts").Return(accts)

	boom := errors.New("UNIQUE constraint failed: accounts.email")
	accts.On("RegisterTx", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, boom)

	repo.On("RunInTx", mock.Anything, mock.Anything, mock.Anything).
		Return(goerrors.Wrap(boom, goerrors.CategoryConflict, "could not create account"))

	handler := accounts.NewRegisterAccountHandler(repo, accounts.Settings{
		RegistrationMode: accounts.RegisterVisitorsOpen,
	}).WithLogger(testLogger{})

	err := handler.Execute(context.Background(), accounts.RegisterAccountMessage{
		Email:            "neo@example.com",
		Password:         "follow-the-white-rabbit",
		ActorIsAnonymous: true,
	})

	require.Error(t, err)
	assert.Equal(t, router.StatusUnprocessableEntity, accounts.HTTPStatusFromError(err))
}

func TestRegisterAccountCancelledContext(t *testing.T) {
	repo := &MockRepositoryManager{}
	handler := accounts.NewRegisterAccountHandler(repo, accounts.Settings{}).WithLogger(testLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := handler.Execute(ctx, accounts.RegisterAccountMessage{
		Email:            "neo@example.com",
		Password:         "follow-the-white-rabbit",
		ActorIsAnonymous: true,
	})

	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, goerrors.CategoryOperation, richErr.Category)
}
