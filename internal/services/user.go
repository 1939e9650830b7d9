package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yatube/yatube/internal/models"
	"github.com/yatube/yatube/internal/repository"
	"github.com/yatube/yatube/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

type SignupInput struct {
	Username  string `form:"username" json:"username" validate:"required,min=3,max=150,username"`
	Email     string `form:"email" json:"email" validate:"omitempty,email,max=254"`
	FirstName string `form:"first_name" json:"first_name" validate:"max=150"`
	LastName  string `form:"last_name" json:"last_name" validate:"max=150"`
	Password  string `form:"password1" json:"password1" validate:"required,min=8"`
	Password2 string `form:"password2" json:"password2" validate:"required,eqfield=Password"`
}

type LoginInput struct {
	Username string `form:"username" json:"username" validate:"required"`
	Password string `form:"password" json:"password" validate:"required"`
}

type PasswordChangeInput struct {
	OldPassword  string `form:"old_password" json:"old_password" validate:"required"`
	NewPassword1 string `form:"new_password1" json:"new_password1" validate:"required,min=8"`
	NewPassword2 string `form:"new_password2" json:"new_password2" validate:"required,eqfield=NewPassword1"`
}

type UserService struct {
	userRepo *repository.UserRepository
	postRepo *repository.PostRepository
	logger   *logger.Logger
}

func NewUserService(userRepo *repository.UserRepository, postRepo *repository.PostRepository, logger *logger.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		postRepo: postRepo,
		logger:   logger,
	}
}

func (s *UserService) Register(ctx context.Context, input *SignupInput) (*models.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetByUsername(ctx, input.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if existing != nil {
		return nil, newValidationError("username", "A user with that username already exists.").withCause(ErrUsernameTaken)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:  input.Username,
		Email:     input.Email,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Password:  string(hashed),
		IsActive:  true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.WithField("user_id", user.ID).Info("User registered successfully")
	return user, nil
}

func (s *UserService) Authenticate(ctx context.Context, input *LoginInput) (*models.User, error) {
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByUsername(ctx, input.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	s.logger.WithField("user_id", user.ID).Info("User logged in successfully")
	return user, nil
}

func (s *UserService) ChangePassword(ctx context.Context, viewer *models.User, input *PasswordChangeInput) error {
	if viewer == nil {
		return ErrUnauthenticated
	}
	if err := validateStruct(input); err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(viewer.Password), []byte(input.OldPassword)); err != nil {
		return newValidationError("old_password", "Your old password was entered incorrectly. Please enter it again.").withCause(ErrInvalidCredentials)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword1), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, viewer.ID, string(hashed)); err != nil {
		return err
	}
	viewer.Password = string(hashed)

	s.logger.WithField("user_id", viewer.ID).Info("Password changed successfully")
	return nil
}

// GetByID loads an active user. It backs token authentication.
func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !user.IsActive {
		return nil, ErrNotFound
	}
	return user, nil
}

// Delete removes a user that has never authored a post. Authors are
// refused with ErrUserHasPosts before anything is touched; the RESTRICT
// foreign key on posts backs the same rule in the database.
func (s *UserService) Delete(ctx context.Context, username string) error {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return ErrNotFound
	}

	posts, err := s.postRepo.CountByAuthor(ctx, user.ID)
	if err != nil {
		return err
	}
	if posts > 0 {
		return ErrUserHasPosts
	}

	if err := s.userRepo.Delete(ctx, user.ID); err != nil {
		return err
	}

	s.logger.WithField("user_id", user.ID).Info("User deleted successfully")
	return nil
}
