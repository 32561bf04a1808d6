package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"shop-data/internal/auth"
	"shop-data/internal/models"

	"github.com/jackc/pgx/v5"
)

type userRepo struct {
	base
}

func NewUserRepository(db DB, opts Options) UserRepository {
	return &userRepo{base: newBase(db, opts)}
}

const userColumns = `
		user_id,
		email,
		first_name,
		last_name,
		birth_date,
		password_hash,
		created_at`

func scanUser(row pgx.Row, u *models.User) error {
	return row.Scan(
		&u.UserID,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.BirthDate,
		&u.PasswordHash,
		&u.CreatedAt,
	)
}

func (r *userRepo) Create(ctx context.Context, in models.NewUser) (*models.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		BirthDate:    in.BirthDate,
		PasswordHash: hash,
	}

	sql := `
	INSERT INTO users (
		email,
		first_name,
		last_name,
		birth_date,
		password_hash
	) VALUES ($1, $2, $3, $4, $5)
	RETURNING user_id, created_at
	`

	err = r.inTx(ctx, "users.create", func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, sql,
			user.Email,
			user.FirstName,
			user.LastName,
			user.BirthDate,
			user.PasswordHash,
		).Scan(&user.UserID, &user.CreatedAt)
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	defer r.metrics.ObserveOp("users.get_by_email", time.Now())

	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email cannot be empty", ErrInvalidInput)
	}

	sql := `SELECT` + userColumns + `
	FROM users WHERE email = $1
	`

	var user models.User
	if err := scanUser(r.db.QueryRow(ctx, sql, email), &user); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, classify(fmt.Errorf("failed to get user by email: %w", err))
	}

	return &user, nil
}

func (r *userRepo) GetInfo(ctx context.Context, id int64) (*models.UserInfo, error) {
	defer r.metrics.ObserveOp("users.get_info", time.Now())

	if err := requireID("user id", id); err != nil {
		return nil, err
	}

	sql := `
	SELECT
		user_id,
		email,
		first_name,
		last_name,
		birth_date,
		is_seller,
		created_at
	FROM user_info_view WHERE user_id = $1
	`

	var info models.UserInfo
	err := r.db.QueryRow(ctx, sql, id).Scan(
		&info.UserID,
		&info.Email,
		&info.FirstName,
		&info.LastName,
		&info.BirthDate,
		&info.IsSeller,
		&info.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, classify(fmt.Errorf("failed to get user info %d: %w", id, err))
	}

	return &info, nil
}

func hashPassword(plain string) (string, error) {
	hash, err := auth.HashPassword(plain)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return "", fmt.Errorf("%w: password failed %q check: %w", ErrInvalidInput, "max_bytes", err)
	}
	return hash, err
}

// Authenticate returns the user whose email and password match. Unknown
// emails and wrong passwords both yield ErrInvalidCredentials.
func (r *userRepo) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := r.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := auth.CheckPassword(user.PasswordHash, password)
	if err != nil {
		r.log.Error("stored password hash is unusable", "user_id", user.UserID, "err", err)
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// Update rewrites the profile of one user while holding that user's row
// lock.
func (r *userRepo) Update(ctx context.Context, in models.UserUpdate) (*models.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var newHash string
	if in.Password != "" {
		hash, err := hashPassword(in.Password)
		if err != nil {
			return nil, err
		}
		newHash = hash
	}

	lockSQL := `SELECT password_hash FROM users WHERE user_id = $1 FOR UPDATE`

	updateSQL := `
	UPDATE users
	SET
		email = $1,
		first_name = $2,
		last_name = $3,
		birth_date = $4,
		password_hash = $5
	WHERE user_id = $6
	RETURNING created_at
	`

	user := &models.User{
		UserID:    in.UserID,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		BirthDate: in.BirthDate,
	}

	err := r.inTx(ctx, "users.update", func(tx pgx.Tx) error {
		if err := r.setLockTimeout(ctx, tx); err != nil {
			return err
		}

		var currentHash string
		if err := tx.QueryRow(ctx, lockSQL, in.UserID).Scan(&currentHash); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: user %d", ErrNotFound, in.UserID)
			}
			return fmt.Errorf("lock user %d: %w", in.UserID, err)
		}

		user.PasswordHash = currentHash
		if newHash != "" {
			user.PasswordHash = newHash
		}

		err := tx.QueryRow(ctx, updateSQL,
			user.Email,
			user.FirstName,
			user.LastName,
			user.BirthDate,
			user.PasswordHash,
			user.UserID,
		).Scan(&user.CreatedAt)
		if err != nil {
			return fmt.Errorf("update user %d: %w", in.UserID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}
