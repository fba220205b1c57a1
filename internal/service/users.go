package service

import (
	"context"

	"koel/internal/apperrors"
	"koel/internal/models"

	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	users UserStore
}

func NewUserService(users UserStore) *UserService {
	return &UserService{users: users}
}

// Register creates a user account with a bcrypt password hash.
func (s *UserService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	existing, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Rewards returns the user's reward balance and tier.
func (s *UserService) Rewards(ctx context.Context, userID int64) (*models.RewardsResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.ErrUserNotFound
	}

	return &models.RewardsResponse{
		UserID:        user.ID,
		CurrentPoints: user.RewardPoints,
		Tier:          rewardTier(user.RewardPoints),
	}, nil
}

// Profile returns the user's account details.
func (s *UserService) Profile(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.ErrUserNotFound
	}
	return user, nil
}

func rewardTier(points int64) string {
	switch {
	case points >= 10000:
		return "Platinum"
	case points >= 5000:
		return "Gold"
	case points >= 1000:
		return "Silver"
	default:
		return "Bronze"
	}
}
