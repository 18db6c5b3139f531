package services

import (
	"context"

	"github.com/Jitesh050/ConnectSphere---A-LinkedIn-Clone/types"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) GetByID(ctx context.Context, id string) (types.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	return user, mapStoreError(err)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (types.User, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	return user, mapStoreError(err)
}

// Create stores a new user. It returns ErrEmailTaken when the email is
// already registered.
func (s *UserService) Create(ctx context.Context, user types.User) (types.User, error) {
	created, err := s.repo.Create(ctx, user)
	return created, mapStoreError(err)
}
