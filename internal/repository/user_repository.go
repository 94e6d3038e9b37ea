package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"notesnap/internal/domain"
	"notesnap/internal/repository/models"
	"notesnap/internal/util"

	"github.com/jmoiron/sqlx"
)

const userColumns = `ID, EMAIL, PASSWORD_HASH, GOOGLE_ID, CREATED_AT, UPDATED_AT`

// sqlxUserRepository implements domain.UserRepository using sqlx.
type sqlxUserRepository struct {
	db DBTX
}

// NewSQLXUserRepository creates a new instance of sqlxUserRepository.
func NewSQLXUserRepository(db *sqlx.DB) domain.UserRepository {
	return &sqlxUserRepository{db: db}
}

func toDomainUser(m *models.User) *domain.User {
	if m == nil {
		return nil
	}
	return &domain.User{
		ID:           m.ID,
		Email:        m.Email,
		PasswordHash: util.NullStringToString(m.PasswordHash),
		GoogleID:     util.NullStringToString(m.GoogleID),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func fromDomainUser(u *domain.User) *models.User {
	if u == nil {
		return nil
	}
	return &models.User{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: util.StringToNullString(u.PasswordHash),
		GoogleID:     util.StringToNullString(u.GoogleID),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

// CreateUser inserts a new user. A taken email or Google id yields a CONFLICT error.
func (r *sqlxUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = util.NewULID()
	}
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	query := `INSERT INTO users (ID, EMAIL, PASSWORD_HASH, GOOGLE_ID, CREATED_AT, UPDATED_AT)
	          VALUES (:ID, :EMAIL, :PASSWORD_HASH, :GOOGLE_ID, :CREATED_AT, :UPDATED_AT)`

	if _, err := r.db.NamedExecContext(ctx, query, fromDomainUser(user)); err != nil {
		if isUniqueViolation(err) {
			return domain.NewConflictError("an account with this email already exists")
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *sqlxUserRepository) getOne(ctx context.Context, column, value string) (*domain.User, error) {
	var user models.User
	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s = :1`, userColumns, column)
	if err := r.db.GetContext(ctx, &user, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by %s: %w", column, err)
	}
	return toDomainUser(&user), nil
}

// GetUserByID returns nil, nil when no user matches.
func (r *sqlxUserRepository) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	return r.getOne(ctx, "ID", userID)
}

func (r *sqlxUserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, "EMAIL", email)
}

func (r *sqlxUserRepository) GetUserByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	return r.getOne(ctx, "GOOGLE_ID", googleID)
}

// UpdateUser rewrites the mutable account fields.
func (r *sqlxUserRepository) UpdateUser(ctx context.Context, user *domain.User) error {
	user.UpdatedAt = time.Now()

	query := `UPDATE users SET
	            EMAIL = :EMAIL,
	            PASSWORD_HASH = :PASSWORD_HASH,
	            GOOGLE_ID = :GOOGLE_ID,
	            UPDATED_AT = :UPDATED_AT
	          WHERE ID = :ID`

	result, err := r.db.NamedExecContext(ctx, query, fromDomainUser(user))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.NewConflictError("google account is already linked to another user")
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.NewNotFoundError(fmt.Sprintf("User not found with ID: %s", user.ID))
	}
	return nil
}
