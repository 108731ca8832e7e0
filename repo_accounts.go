package accounts

import (
	"context"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SetAccountPasswordSQL installs a new password hash. Setting a password
// through a reset link proves ownership of the mailbox, so the email is
// marked verified in the same statement.
var SetAccountPasswordSQL = `UPDATE "accounts" AS "act"
SET
	"is_email_verified" = TRUE,
	"password_hash" = ?
WHERE
	"act"."deleted_at" IS NULL
AND (
	"act"."id" = ?
) RETURNING *;`

// Accounts is the account repository surface the lifecycle handlers depend
// on. Lookups return the first deterministic match ordered by id.
type Accounts interface {
	GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*Account, error)
	FindByUsername(ctx context.Context, name string) (*Account, error)
	FindByUsernameTx(ctx context.Context, tx bun.IDB, name string) (*Account, error)
	FindByEmail(ctx context.Context, mail string) (*Account, error)
	FindByEmailTx(ctx context.Context, tx bun.IDB, mail string) (*Account, error)

	Register(ctx context.Context, record *Account) (*Account, error)
	RegisterTx(ctx context.Context, tx bun.IDB, record *Account) (*Account, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, status AccountStatus, opts ...StatusUpdateOption) (*Account, error)
	UpdateStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status AccountStatus, opts ...StatusUpdateOption) (*Account, error)

	SetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	SetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error

	TrackSuccessfulLogin(ctx context.Context, account *Account) error
	TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, account *Account) error
}

type accountsRepo struct {
	repository.Repository[*Account]
	db *bun.DB
}

var _ Accounts = (*accountsRepo)(nil)

// NewAccountsRepository builds the bun backed repository.
func NewAccountsRepository(db *bun.DB) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &accountsRepo{
		Repository: repo,
		db:         db,
	}
}

func (a *accountsRepo) FindByUsername(ctx context.Context, name string) (*Account, error) {
	return a.FindByUsernameTx(ctx, a.db, name)
}

func (a *accountsRepo) FindByUsernameTx(ctx context.Context, tx bun.IDB, name string) (*Account, error) {
	return a.findByColumn(ctx, tx, "username", name)
}

func (a *accountsRepo) FindByEmail(ctx context.Context, mail string) (*Account, error) {
	return a.FindByEmailTx(ctx, a.db, mail)
}

func (a *accountsRepo) FindByEmailTx(ctx context.Context, tx bun.IDB, mail string) (*Account, error) {
	return a.findByColumn(ctx, tx, "email", mail)
}

func (a *accountsRepo) findByColumn(ctx context.Context, tx bun.IDB, column, value string) (*Account, error) {
	record := &Account{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias."+column+" = ?", value).
		OrderExpr("?TableAlias.id ASC").
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{column: value})
		}
		return nil, err
	}

	return record, nil
}

func (a *accountsRepo) Register(ctx context.Context, record *Account) (*Account, error) {
	return a.RegisterTx(ctx, a.db, record)
}

func (a *accountsRepo) RegisterTx(ctx context.Context, tx bun.IDB, record *Account) (*Account, error) {
	prepareAccountDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record)
}

func (a *accountsRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status AccountStatus, opts ...StatusUpdateOption) (*Account, error) {
	return a.UpdateStatusTx(ctx, a.db, id, status, opts...)
}

func (a *accountsRepo) UpdateStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status AccountStatus, opts ...StatusUpdateOption) (*Account, error) {
	record := &Account{
		ID:     id,
		Status: status,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(record)
		}
	}

	return a.Repository.UpdateTx(ctx, tx, record, repository.UpdateByID(id.String()))
}

func (a *accountsRepo) SetPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return a.SetPasswordTx(ctx, a.db, id, passwordHash)
}

func (a *accountsRepo) SetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	res, err := a.Repository.RawTx(ctx, tx, SetAccountPasswordSQL, passwordHash, id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

func (a *accountsRepo) TrackSuccessfulLogin(ctx context.Context, account *Account) error {
	return a.TrackSuccessfulLoginTx(ctx, a.db, account)
}

func (a *accountsRepo) TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, account *Account) error {
	now := time.Now()
	_, err := tx.NewRaw(`
		UPDATE "accounts" AS "act"
		SET
			"last_login_at" = ?,
			"last_access_at" = ?
		WHERE
			("act".id = ?)
			AND "act"."deleted_at" IS NULL;
	`, now, now, account.ID).Exec(ctx)

	return err
}

// StatusUpdateOption mutates the account record before persisting status changes.
type StatusUpdateOption func(*Account)

// WithLastAccessAt sets the LastAccessAt timestamp during a status transition.
func WithLastAccessAt(at *time.Time) StatusUpdateOption {
	return func(a *Account) {
		a.LastAccessAt = at
	}
}
