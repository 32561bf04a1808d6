package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"shop-data/internal/auth"
	"shop-data/internal/metrics"
	"shop-data/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var birth = time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC)

func validNewUser() models.NewUser {
	return models.NewUser{
		Email:     "ada@example.com",
		FirstName: "Ada",
		LastName:  "Lovelace",
		BirthDate: birth,
		Password:  "analytical-engine",
	}
}

func userRow(id int64, email, hash string) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"user_id", "email", "first_name", "last_name", "birth_date", "password_hash", "created_at"}).
		AddRow(id, email, "Ada", "Lovelace", birth, hash, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
}

func TestUserCreate_Success(t *testing.T) {
	mock := newMock(t)
	opts, m := testOptions()
	repo := NewUserRepository(mock, opts)
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(sqlLike("INSERT INTO users")).
		WithArgs("ada@example.com", "Ada", "Lovelace", birth, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "created_at"}).AddRow(int64(1), created))
	mock.ExpectCommit()

	user, err := repo.Create(context.Background(), validNewUser())
	require.NoError(t, err)

	assert.Equal(t, int64(1), user.UserID)
	assert.Equal(t, created, user.CreatedAt)
	assert.NotEqual(t, "analytical-engine", user.PasswordHash)
	ok, err := auth.CheckPassword(user.PasswordHash, "analytical-engine")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TxTotal.WithLabelValues("users.create", metrics.OutcomeCommit)))
}

func TestUserCreate_DuplicateEmailRollsBack(t *testing.T) {
	mock := newMock(t)
	opts, m := testOptions()
	repo := NewUserRepository(mock, opts)

	mock.ExpectBegin()
	mock.ExpectQuery(sqlLike("INSERT INTO users")).
		WithArgs("ada@example.com", "Ada", "Lovelace", birth, pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})
	mock.ExpectRollback()

	user, err := repo.Create(context.Background(), validNewUser())
	assert.Nil(t, user)
	require.ErrorIs(t, err, ErrDuplicate)
	assert.Equal(t, KindDuplicate, KindOf(err))
	assert.Contains(t, err.Error(), "users_email_key")

	var pgErr *pgconn.PgError
	assert.True(t, errors.As(err, &pgErr), "driver error stays reachable")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TxTotal.WithLabelValues("users.create", metrics.OutcomeRollback)))
}

func TestUserCreate_InvalidInputSkipsDatabase(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock, Options{})

	// The multibyte password is 40 runes, which passes the rune-counted
	// max=72 tag, but 80 bytes, which bcrypt cannot hash.
	cases := map[string]func(u *models.NewUser){
		"bad email":          func(u *models.NewUser) { u.Email = "not-an-email" },
		"short password":     func(u *models.NewUser) { u.Password = "short" },
		"no birth date":      func(u *models.NewUser) { u.BirthDate = time.Time{} },
		"no first name":      func(u *models.NewUser) { u.FirstName = "" },
		"multibyte password": func(u *models.NewUser) { u.Password = strings.Repeat("é", 40) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validNewUser()
			mutate(&in)
			_, err := repo.Create(context.Background(), in)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Equal(t, KindInvalidInput, KindOf(err))
		})
	}
}

func TestUserCreate_ValidationNamesJSONField(t *testing.T) {
	repo := NewUserRepository(newMock(t), Options{})
	in := validNewUser()
	in.Email = "nope"

	_, err := repo.Create(context.Background(), in)
	assert.ErrorContains(t, err, `email failed "email" check`)
}

func TestUserGetByEmail(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock, Options{})

	mock.ExpectQuery(sqlLike("FROM users WHERE email = $1")).
		WithArgs("ada@example.com").
		WillReturnRows(userRow(1, "ada@example.com", "hash"))

	user, err := repo.GetByEmail(context.Background(), " ada@example.com ")
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.UserID)
	assert.Equal(t, "Ada", user.FirstName)
	assert.Equal(t, birth, user.BirthDate)
}

func TestUserGetByEmail_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock, Options{})

	mock.ExpectQuery(sqlLike("FROM users WHERE email = $1")).
		WithArgs("ghost@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "email", "first_name", "last_name", "birth_date", "password_hash", "created_at"}))

	_, err := repo.GetByEmail(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserGetByEmail_QueryErrorPropagates(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock, Options{})
	boom := errors.New("connection reset")

	mock.ExpectQuery(sqlLike("FROM users WHERE email = $1")).
		WithArgs("ada@example.com").
		WillReturnError(boom)

	_, err := repo.GetByEmail(context.Background(), "ada@example.com")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, KindInternal, KindOf(err))
}

func TestUserGetInfo(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock, Options{})
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(sqlLike("FROM user_info_view WHERE user_id = $1")).
		WithArgs(int64(4)).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "email", "first_name", "last_name", "birth_date", "is_seller", "created_at"}).
			AddRow(int64(4), "ada@example.com", "Ada", "Lovelace", birth, true, created))

	info, err := repo.GetInfo(context.Background(), 4)
	require.NoError(t, err)
	assert.True(t, info.IsSeller)

	_, err = repo.GetInfo(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUserAuthenticate(t *testing.T) {
	hash, err := auth.HashPassword("analytical-engine")
	require.NoError(t, err)

	t.Run("match", func(t *testing.T) {
		mock := newMock(t)
		repo := NewUserRepository(mock, Options{})
		mock.ExpectQuery(sqlLike("FROM users WHERE email = $1")).
			WithArgs("ada@example.com").
			WillReturnRows(userRow(1, "ada@example.com", hash))

		user, err := repo.Authenticate(context.Background(), "ada@example.com", "analytical-engine")
		require.NoError(t, err)
		assert.Equal(t, int64(1), user.UserID)
	})

	t.Run("wrong password", func(t *testing.T) {
		mock := newMock(t)
		repo := NewUserRepository(mock, Options{})
		mock.ExpectQuery(sqlLike("FROM users WHERE email = $1")).
			WithArgs("ada@example.com").
			WillReturnRows(userRow(1, "ada@example.com", hash))

		_, err := repo.Authenticate(context.Background(), "ada@example.com", "difference-engine")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		mock := newMock(t)
		repo := NewUserRepository(mock, Options{})
		mock.ExpectQuery(sqlLike("FROM users WHERE email = $1")).
			WithArgs("ghost@example.com").
			WillReturnRows(pgxmock.NewRows([]string{"user_id", "email", "first_name", "last_name", "birth_date", "password_hash", "created_at"}))

		_, err := repo.Authenticate(context.Background(), "ghost@example.com", "whatever-pass")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Equal(t, KindUnauthorized, KindOf(err))
	})

	t.Run("plain text row never matches", func(t *testing.T) {
		mock := newMock(t)
		repo := NewUserRepository(mock, Options{})
		mock.ExpectQuery(sqlLike("FROM users WHERE email = $1")).
			WithArgs("legacy@example.com").
			WillReturnRows(userRow(2, "legacy@example.com", "legacy-plain"))

		_, err := repo.Authenticate(context.Background(), "legacy@example.com", "legacy-plain")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestUserUpdate_LocksRowThenUpdates(t *testing.T) {
	mock := newMock(t)
	opts, _ := testOptions()
	repo := NewUserRepository(mock, opts)
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(lockTimeoutSQL).WithArgs("250ms").WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectQuery(sqlLike("SELECT password_hash FROM users WHERE user_id = $1 FOR UPDATE")).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"password_hash"}).AddRow("old-hash"))
	mock.ExpectQuery(sqlLike("UPDATE users")).
		WithArgs("ada.king@example.com", "Ada", "King", birth, "old-hash", int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(created))
	mock.ExpectCommit()

	user, err := repo.Update(context.Background(), models.UserUpdate{
		UserID:    1,
		Email:     "ada.king@example.com",
		FirstName: "Ada",
		LastName:  "King",
		BirthDate: birth,
	})
	require.NoError(t, err)
	assert.Equal(t, "King", user.LastName)
	assert.Equal(t, "old-hash", user.PasswordHash, "empty password keeps the stored hash")
	assert.Equal(t, created, user.CreatedAt)
}

func TestUserUpdate_NewPasswordIsHashed(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepository(mock, Options{})

	mock.ExpectBegin()
	mock.ExpectQuery(sqlLike("FOR UPDATE")).
		WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"password_hash"}).AddRow("old-hash"))
	mock.ExpectQuery(sqlLike("UPDATE users")).
		WithArgs("ada@example.com", "Ada", "Lovelace", birth, pgxmock.AnyArg(), int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
	mock.ExpectCommit()

	user, err := repo.Update(context.Background(), models.UserUpdate{
		UserID: 1, Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace", BirthDate: birth,
		Password: "new-secret-pass",
	})
	require.NoError(t, err)
	ok, err := auth.CheckPassword(user.PasswordHash, "new-secret-pass")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUserUpdate_Errors(t *testing.T) {
	update := models.UserUpdate{UserID: 9, Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace", BirthDate: birth}

	t.Run("missing user", func(t *testing.T) {
		mock := newMock(t)
		repo := NewUserRepository(mock, Options{})
		mock.ExpectBegin()
		mock.ExpectQuery(sqlLike("FOR UPDATE")).
			WithArgs(int64(9)).
			WillReturnRows(pgxmock.NewRows([]string{"password_hash"}))
		mock.ExpectRollback()

		_, err := repo.Update(context.Background(), update)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("lock timeout", func(t *testing.T) {
		mock := newMock(t)
		repo := NewUserRepository(mock, Options{})
		mock.ExpectBegin()
		mock.ExpectQuery(sqlLike("FOR UPDATE")).
			WithArgs(int64(9)).
			WillReturnError(&pgconn.PgError{Code: "55P03", Message: "canceling statement due to lock timeout"})
		mock.ExpectRollback()

		_, err := repo.Update(context.Background(), update)
		assert.ErrorIs(t, err, ErrLockTimeout)
	})

	t.Run("email taken", func(t *testing.T) {
		mock := newMock(t)
		repo := NewUserRepository(mock, Options{})
		mock.ExpectBegin()
		mock.ExpectQuery(sqlLike("FOR UPDATE")).
			WithArgs(int64(9)).
			WillReturnRows(pgxmock.NewRows([]string{"password_hash"}).AddRow("h"))
		mock.ExpectQuery(sqlLike("UPDATE users")).
			WithArgs("ada@example.com", "Ada", "Lovelace", birth, "h", int64(9)).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})
		mock.ExpectRollback()

		_, err := repo.Update(context.Background(), update)
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("begin fails", func(t *testing.T) {
		mock := newMock(t)
		repo := NewUserRepository(mock, Options{})
		boom := errors.New("too many clients")
		mock.ExpectBegin().WillReturnError(boom)

		_, err := repo.Update(context.Background(), update)
		assert.ErrorIs(t, err, boom)
		assert.ErrorContains(t, err, "users.update: begin transaction")
	})
}

func TestUserUpdate_MultibytePasswordOverLimit(t *testing.T) {
	repo := NewUserRepository(newMock(t), Options{})

	_, err := repo.Update(context.Background(), models.UserUpdate{
		UserID: 1, Email: "ada@example.com", FirstName: "Ada", LastName: "Lovelace", BirthDate: birth,
		Password: strings.Repeat("é", 40),
	})
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, KindInvalidInput, KindOf(err))
	assert.ErrorContains(t, err, "password")
}
