package users

import (
	"context"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DefaultPageSize caps list responses when no limit is given.
const DefaultPageSize = 25

var resetPasswordSQL = `UPDATE "users" AS "usr" SET "password_hash" = ?, "updated_at" = CURRENT_TIMESTAMP WHERE "usr"."id" = ? RETURNING *;`

var setPasswordByEmailSQL = `UPDATE "users" AS "usr" SET "password_hash" = ?, "updated_at" = CURRENT_TIMESTAMP WHERE "usr"."email" = ? RETURNING *;`

// SearchFilter narrows and pages a user listing. Offset is a page
// index, not a row offset: the query skips Offset*Limit rows.
type SearchFilter struct {
	Term   string
	Offset int
	Limit  int
}

// UserUpdate carries the mutable profile fields. Nil means leave the
// column untouched.
type UserUpdate struct {
	Name     *string
	IsActive *bool
}

// Users is the directory store.
type Users interface {
	repository.Repository[*User]
	GetByEmail(ctx context.Context, email string, criteria ...repository.SelectCriteria) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string, criteria ...repository.SelectCriteria) (*User, error)
	GetByEmailWithCredentials(ctx context.Context, email string, criteria ...repository.SelectCriteria) (*User, error)
	GetWithRole(ctx context.Context, id uuid.UUID) (*User, error)
	Search(ctx context.Context, filter SearchFilter) ([]*User, int, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, update UserUpdate) (*User, error)
	ToggleActive(ctx context.Context, id uuid.UUID) (*User, error)
	ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error
	SetPasswordByEmail(ctx context.Context, email, passwordHash string) error
}

// WithRole loads the role relation alongside the user.
func WithRole() repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Relation("Role")
	}
}

type usersRepo struct {
	repository.Repository[*User]
	db *bun.DB
}

// NewUsers builds the directory store on top of db.
func NewUsers(db *bun.DB) Users {
	handlers := repository.ModelHandlers[*User]{
		NewRecord: func() *User {
			return &User{}
		},
		GetID: func(record *User) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *User, id uuid.UUID) {
			if record != nil {
				record.ID = id
			}
		},
	}
	return &usersRepo{
		Repository: repository.NewRepository[*User](db, handlers),
		db:         db,
	}
}

// NormalizeEmail lowercases and trims an address so lookups and unique
// checks are case insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *usersRepo) Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	return r.CreateTx(ctx, r.db, record, criteria...)
}

func (r *usersRepo) CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	prepareUserDefaults(record)
	return r.Repository.CreateTx(ctx, tx, record, criteria...)
}

// GetByEmail resolves an account without its password hash.
func (r *usersRepo) GetByEmail(ctx context.Context, email string, criteria ...repository.SelectCriteria) (*User, error) {
	return r.GetByEmailTx(ctx, r.db, email, criteria...)
}

func (r *usersRepo) GetByEmailTx(ctx context.Context, tx bun.IDB, email string, criteria ...repository.SelectCriteria) (*User, error) {
	return r.getByEmail(ctx, tx, email, false, criteria...)
}

// GetByEmailWithCredentials resolves an account including the password
// hash. Only credential verification flows should reach for it.
func (r *usersRepo) GetByEmailWithCredentials(ctx context.Context, email string, criteria ...repository.SelectCriteria) (*User, error) {
	return r.getByEmail(ctx, r.db, email, true, criteria...)
}

func (r *usersRepo) getByEmail(ctx context.Context, tx bun.IDB, email string, withCredentials bool, criteria ...repository.SelectCriteria) (*User, error) {
	record := &User{}
	q := tx.NewSelect().Model(record)
	if !withCredentials {
		q = q.ExcludeColumn("password_hash")
	}
	for _, c := range criteria {
		q = q.Apply(c)
	}
	err := q.Where("?TableAlias.email = ?", NormalizeEmail(email)).Limit(1).Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().WithMetadata(map[string]any{
				"email": email,
			})
		}
		return nil, err
	}
	return record, nil
}

func (r *usersRepo) GetWithRole(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.getWithRoleTx(ctx, r.db, id)
}

func (r *usersRepo) getWithRoleTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		ExcludeColumn("password_hash").
		Relation("Role").
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().WithMetadata(map[string]any{
				"id": id.String(),
			})
		}
		return nil, err
	}
	return record, nil
}

// Search pages through the directory, optionally narrowing by a term
// matched against email and name.
func (r *usersRepo) Search(ctx context.Context, filter SearchFilter) ([]*User, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = DefaultPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	records := []*User{}
	q := r.db.NewSelect().
		Model(&records).
		ExcludeColumn("password_hash").
		Relation("Role").
		OrderExpr("?TableAlias.name ASC").
		Offset(filter.Offset * filter.Limit).
		Limit(filter.Limit)

	if term := strings.TrimSpace(filter.Term); term != "" {
		pattern := "%" + strings.ToLower(term) + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("LOWER(?TableAlias.email) LIKE ?", pattern).
				WhereOr("LOWER(?TableAlias.name) LIKE ?", pattern)
		})
	}

	count, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.CategoryInternal, "unable to list users")
	}
	return records, count, nil
}

func (r *usersRepo) UpdateProfile(ctx context.Context, id uuid.UUID, update UserUpdate) (*User, error) {
	record, err := r.getWithRoleTx(ctx, r.db, id)
	if err != nil {
		return nil, err
	}

	columns := []string{}
	if update.Name != nil {
		record.Name = *update.Name
		columns = append(columns, "name")
	}
	if update.IsActive != nil {
		record.IsActive = *update.IsActive
		columns = append(columns, "is_active")
	}
	if len(columns) == 0 {
		return record, nil
	}

	_, err = r.db.NewUpdate().
		Model(record).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "unable to update user")
	}
	return record, nil
}

func (r *usersRepo) ToggleActive(ctx context.Context, id uuid.UUID) (*User, error) {
	record, err := r.getWithRoleTx(ctx, r.db, id)
	if err != nil {
		return nil, err
	}

	record.IsActive = !record.IsActive
	_, err = r.db.NewUpdate().
		Model(record).
		Column("is_active").
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "unable to toggle user status")
	}
	return record, nil
}

func (r *usersRepo) ResetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	res, err := r.Repository.RawTx(ctx, tx, resetPasswordSQL, passwordHash, id.String())
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "unable to reset password")
	}
	if len(res) == 0 {
		return repository.NewRecordNotFound().WithMetadata(map[string]any{
			"id": id.String(),
		})
	}
	return nil
}

func (r *usersRepo) SetPasswordByEmail(ctx context.Context, email, passwordHash string) error {
	res, err := r.Repository.RawTx(ctx, r.db, setPasswordByEmailSQL, passwordHash, NormalizeEmail(email))
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "unable to set password")
	}
	if len(res) == 0 {
		return repository.NewRecordNotFound().WithMetadata(map[string]any{
			"email": email,
		})
	}
	return nil
}

// prepareUserDefaults fills the id and role for new records. The id is
// derived from the email so that re-creating the same account yields
// the same uuid.
func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}
	record.Email = NormalizeEmail(record.Email)
	if record.RoleID == 0 {
		record.RoleID = DefaultRoleID
	}
	if record.ID == uuid.Nil {
		if id, err := hashid.NewUUID(record.Email); err == nil {
			record.ID = id
		} else {
			record.ID = uuid.New()
		}
	}
}
