package identity

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// Users is the credential store. Lookup comes in two flavors on purpose:
// GetByEmail matches the exact stored string (the login path) while
// EmailExists folds case (the registration duplicate check).
type Users interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, record *User) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)
	Deactivate(ctx context.Context, id int64) error
}

type users struct {
	db *bun.DB
}

var _ Users = (*users)(nil)

func NewUsersRepository(db *bun.DB) Users {
	return &users{db: db}
}

func (a *users) GetByID(ctx context.Context, id int64) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.user_id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrIdentityNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load user by id").
			WithTextCode(TextCodePersistence)
	}

	return record, nil
}

// GetByEmail performs an exact match against the stored address. Callers
// normalize first; rows written by this package are always lowercase.
func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrIdentityNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load user by email").
			WithTextCode(TextCodePersistence)
	}

	return record, nil
}

// EmailExists folds case so "A@x.com" and "a@x.com" collide at
// registration time even if the row predates normalization.
func (a *users) EmailExists(ctx context.Context, email string) (bool, error) {
	exists, err := a.db.NewSelect().
		Model((*User)(nil)).
		Where("lower(?TableAlias.email) = lower(?)", email).
		Exists(ctx)

	if err != nil {
		return false, errors.Wrap(err, errors.CategoryInternal, "failed to check email uniqueness").
			WithTextCode(TextCodePersistence)
	}

	return exists, nil
}

func (a *users) Create(ctx context.Context, record *User) (*User, error) {
	return a.CreateTx(ctx, a.db, record)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	prepareUserDefaults(record)

	if record.PasswordHash == "" {
		// never persist a row that could be logged into with an empty string
		record.PasswordHash = RandomPasswordHash()
	}

	if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
		if IsUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to persist user").
			WithTextCode(TextCodePersistence)
	}

	return record, nil
}

// Deactivate flips is_active off; there is no hard delete path.
func (a *users) Deactivate(ctx context.Context, id int64) error {
	now := time.Now()
	res, err := a.db.NewUpdate().
		Model((*User)(nil)).
		Set("is_active = ?", false).
		Set("updated_at = ?", now).
		Where("user_id = ?", id).
		Exec(ctx)

	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to deactivate user").
			WithTextCode(TextCodePersistence)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrIdentityNotFound
	}

	return nil
}
