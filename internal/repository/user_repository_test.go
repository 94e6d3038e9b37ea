package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"notesnap/internal/domain"
	"notesnap/internal/repository/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userRowColumns = []string{"ID", "EMAIL", "PASSWORD_HASH", "GOOGLE_ID", "CREATED_AT", "UPDATED_AT"}

func TestUserConverters(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	model := &models.User{
		ID:           "user1",
		Email:        "test@example.com",
		PasswordHash: sql.NullString{String: "$2a$10$hash", Valid: true},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	user := toDomainUser(model)
	require.NotNil(t, user)
	assert.Equal(t, "$2a$10$hash", user.PasswordHash)
	assert.Equal(t, "", user.GoogleID)

	back := fromDomainUser(user)
	assert.Equal(t, model, back)

	assert.Nil(t, toDomainUser(nil))
	assert.Nil(t, fromDomainUser(nil))
}

func TestSQLXUserRepository_CreateUser(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock := setupTestDB(t)
		defer db.Close()
		repo := NewSQLXUserRepository(db)

		user := domain.NewUser("New@Example.com ")
		user.PasswordHash = "$2a$10$hash"

		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users (ID, EMAIL, PASSWORD_HASH, GOOGLE_ID, CREATED_AT, UPDATED_AT)`)).
			WithArgs(sqlmock.AnyArg(), "new@example.com", "$2a$10$hash", nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.CreateUser(context.Background(), user))
		assert.Len(t, user.ID, 26, "a ULID is assigned")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		db, mock := setupTestDB(t)
		defer db.Close()
		repo := NewSQLXUserRepository(db)

		mock.ExpectExec(`INSERT INTO users`).
			WillReturnError(errors.New("ORA-00001: unique constraint (NOTES.UQ_USERS_EMAIL) violated"))

		err := repo.CreateUser(context.Background(), domain.NewUser("dup@example.com"))
		assert.True(t, domain.HasCode(err, domain.CodeConflict))
	})
}

func TestSQLXUserRepository_GetUserByEmail(t *testing.T) {
	now := time.Now()

	t.Run("Success", func(t *testing.T) {
		db, mock := setupTestDB(t)
		defer db.Close()
		repo := NewSQLXUserRepository(db)

		rows := sqlmock.NewRows(userRowColumns).AddRow("u1", "a@example.com", "$2a$10$hash", nil, now, now)
		mock.ExpectQuery(`SELECT .* FROM users WHERE EMAIL = :1`).WithArgs("a@example.com").WillReturnRows(rows)

		user, err := repo.GetUserByEmail(context.Background(), "a@example.com")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "u1", user.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		db, mock := setupTestDB(t)
		defer db.Close()
		repo := NewSQLXUserRepository(db)

		mock.ExpectQuery(`SELECT .* FROM users WHERE EMAIL = :1`).WillReturnError(sql.ErrNoRows)

		user, err := repo.GetUserByEmail(context.Background(), "none@example.com")
		assert.NoError(t, err, "Expected no error from adapter when record not found")
		assert.Nil(t, user)
	})
}

func TestSQLXUserRepository_GetUserByIDAndGoogleID(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()
	repo := NewSQLXUserRepository(db)
	now := time.Now()

	mock.ExpectQuery(`SELECT .* FROM users WHERE ID = :1`).WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow("u1", "a@example.com", nil, "g-1", now, now))
	mock.ExpectQuery(`SELECT .* FROM users WHERE GOOGLE_ID = :1`).WithArgs("g-1").
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow("u1", "a@example.com", nil, "g-1", now, now))

	byID, err := repo.GetUserByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "g-1", byID.GoogleID)

	byGoogle, err := repo.GetUserByGoogleID(context.Background(), "g-1")
	require.NoError(t, err)
	assert.Equal(t, "u1", byGoogle.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLXUserRepository_UpdateUser(t *testing.T) {
	db, mock := setupTestDB(t)
	defer db.Close()
	repo := NewSQLXUserRepository(db)

	user := &domain.User{ID: "u1", Email: "a@example.com", GoogleID: "g-1"}

	mock.ExpectExec(`UPDATE users SET`).
		WithArgs("a@example.com", nil, "g-1", sqlmock.AnyArg(), "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE users SET`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.UpdateUser(context.Background(), user))
	err := repo.UpdateUser(context.Background(), user)
	assert.True(t, domain.HasCode(err, domain.CodeNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
