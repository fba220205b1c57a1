package repository

import (
	"context"
	"database/sql"

	"koel/internal/apperrors"
	"koel/internal/database"
	"koel/internal/models"

	"github.com/lib/pq"
)

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (name, email, phone, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING user_id, reward_points, is_active, registered_at`

	err := r.db.QueryRowContext(ctx, query,
		user.Name, user.Email, user.Phone, user.PasswordHash,
	).Scan(&user.ID, &user.RewardPoints, &user.IsActive, &user.RegisteredAt)

	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return apperrors.ErrEmailTaken
	}

	return err
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT user_id, name, email, phone, password_hash, reward_points, is_active, registered_at
		FROM users
		WHERE user_id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Name, &user.Email, &user.Phone,
		&user.PasswordHash, &user.RewardPoints, &user.IsActive, &user.RegisteredAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT user_id, name, email, phone, password_hash, reward_points, is_active, registered_at
		FROM users
		WHERE email = $1`

	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.Name, &user.Email, &user.Phone,
		&user.PasswordHash, &user.RewardPoints, &user.IsActive, &user.RegisteredAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

// AddRewardPoints credits points to a user. Points only ever grow here;
// redemption is a separate concern.
func (r *UserRepository) AddRewardPoints(ctx context.Context, userID int64, points int64) error {
	if points <= 0 {
		return nil
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET reward_points = reward_points + $1
		WHERE user_id = $2`, points, userID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.ErrUserNotFound
	}

	return nil
}
