package users

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// PasswordRecoveries is the ledger of outstanding recovery tokens.
type PasswordRecoveries interface {
	Create(ctx context.Context, record *PasswordRecovery) (*PasswordRecovery, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *PasswordRecovery) (*PasswordRecovery, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*PasswordRecovery, error)
	GetByUserIDTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (*PasswordRecovery, error)
	DeleteByID(ctx context.Context, id int64) error
	DeleteByIDTx(ctx context.Context, tx bun.IDB, id int64) error
	DeleteByUserIDTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error
}

type passwordRecoveries struct {
	db *bun.DB
}

// NewPasswordRecoveries builds the recovery ledger store.
func NewPasswordRecoveries(db *bun.DB) PasswordRecoveries {
	return &passwordRecoveries{db: db}
}

func (r *passwordRecoveries) Create(ctx context.Context, record *PasswordRecovery) (*PasswordRecovery, error) {
	return r.CreateTx(ctx, r.db, record)
}

func (r *passwordRecoveries) CreateTx(ctx context.Context, tx bun.IDB, record *PasswordRecovery) (*PasswordRecovery, error) {
	_, err := tx.NewInsert().
		Model(record).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "unable to save recovery entry")
	}
	return record, nil
}

func (r *passwordRecoveries) GetByUserID(ctx context.Context, userID uuid.UUID) (*PasswordRecovery, error) {
	return r.GetByUserIDTx(ctx, r.db, userID)
}

// GetByUserIDTx returns the most recent outstanding entry for a user.
func (r *passwordRecoveries) GetByUserIDTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) (*PasswordRecovery, error) {
	record := &PasswordRecovery{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.user_id = ?", userID).
		OrderExpr("?TableAlias.id DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().WithMetadata(map[string]any{
				"user_id": userID.String(),
			})
		}
		return nil, err
	}
	return record, nil
}

func (r *passwordRecoveries) DeleteByID(ctx context.Context, id int64) error {
	return r.DeleteByIDTx(ctx, r.db, id)
}

func (r *passwordRecoveries) DeleteByIDTx(ctx context.Context, tx bun.IDB, id int64) error {
	_, err := tx.NewDelete().
		Model((*PasswordRecovery)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "unable to delete recovery entry")
	}
	return nil
}

// DeleteByUserIDTx clears every outstanding entry for a user.
func (r *passwordRecoveries) DeleteByUserIDTx(ctx context.Context, tx bun.IDB, userID uuid.UUID) error {
	_, err := tx.NewDelete().
		Model((*PasswordRecovery)(nil)).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "unable to delete recovery entries")
	}
	return nil
}
