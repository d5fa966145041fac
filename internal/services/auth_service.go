package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/badoux/checkmail"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/team-task-api/internal/constants"
	"github.com/yukikurage/team-task-api/internal/models"
	"github.com/yukikurage/team-task-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken           = errors.New("email already registered")
	ErrInvalidEmail         = errors.New("invalid email address")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrInvalidRole          = errors.New("role must be employee or admin")
	ErrUserNotFound         = errors.New("user not found")
	ErrNotAdmin             = errors.New("only admins can perform this action")
	ErrFailedToHashPassword = errors.New("failed to hash password")
)

// AuthService handles authentication related business logic.
type AuthService struct {
	userRepo repository.UserRepository
	approval *ApprovalService
	log      logrus.FieldLogger
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, approval *ApprovalService, log logrus.FieldLogger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		approval: approval,
		log:      log,
	}
}

// SignupInput represents the required information to create a new user.
type SignupInput struct {
	Email    string
	Password string
	Name     string
	Role     models.Role
}

// SignupResult is the created user and, for admin signups, whether the
// approval request went out.
type SignupResult struct {
	User              *models.User
	ApprovalRequested bool
}

// Signup creates a new user. Admin signups are stored as pending until an
// approver follows the emailed link.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*SignupResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if err := checkmail.ValidateFormat(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	role := input.Role
	switch role {
	case "":
		role = models.RoleEmployee
	case models.RoleEmployee:
	case models.RoleAdmin:
		role = models.RolePending
	default:
		return nil, ErrInvalidRole
	}

	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	user := &models.User{
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		PasswordHash: string(hashedPassword),
		Role:         role,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	result := &SignupResult{User: user}
	if role != models.RolePending {
		return result, nil
	}

	if err := s.approval.RequestApproval(ctx, user); err != nil {
		s.log.WithError(err).WithField("user_id", user.ID).Error("Failed to send admin approval request")
		return result, nil
	}
	result.ApprovalRequested = true

	return result, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Email    string
	Password string
}

// Login verifies credentials and returns the authenticated user.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return findUser(ctx, s.userRepo, id)
}

// ListUsersByRole lists users holding role
func (s *AuthService) ListUsersByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	users, err := s.userRepo.ListByRole(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func findUser(ctx context.Context, userRepo repository.UserRepository, id string) (*models.User, error) {
	user, err := userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

func requireAdmin(ctx context.Context, userRepo repository.UserRepository, id string) (*models.User, error) {
	user, err := findUser(ctx, userRepo, id)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin() {
		return nil, ErrNotAdmin
	}
	return user, nil
}
