package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jellyworks/team-tasks-api/internal/mailer"
	"github.com/jellyworks/team-tasks-api/internal/models"
	"github.com/jellyworks/team-tasks-api/internal/repository"
	"github.com/jellyworks/team-tasks-api/internal/validation"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUsernameTaken        = errors.New("username already exists")
	ErrEmailTaken           = errors.New("email already exists")
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrUserNotFound         = errors.New("user not found")
	ErrLinkExpired          = errors.New("link expired or invalid")
	ErrFailedToHashPassword = errors.New("failed to hash password")
)

// AuthService handles authentication, profile and password-token workflows.
type AuthService struct {
	userRepo repository.UserRepository
	mailer   mailer.Mailer
	baseURL  string
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, m mailer.Mailer, baseURL string) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		mailer:   m,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// SignupInput represents the required information to create a new user.
type SignupInput struct {
	Username             string
	FirstName            string
	LastName             string
	Email                string
	NewPassword          string
	PasswordConfirmation string
}

// Signup validates and creates a new user. Nothing is persisted when any
// field fails validation.
func (s *AuthService) Signup(input SignupInput) (*models.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)

	fieldErrs := validation.ValidateUserProfile(username, input.FirstName, input.LastName, email)
	for field, msg := range validation.ValidateNewPassword(input.NewPassword, input.PasswordConfirmation) {
		fieldErrs[field] = msg
	}
	if fieldErrs.HasErrors() {
		return nil, fieldErrs
	}

	if err := s.ensureIdentityAvailable(username, email, 0); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	user := &models.User{
		Username:     username,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// LoginInput holds the credentials for authentication.
type LoginInput struct {
	Username string
	Password string
}

// Login verifies credentials and returns the authenticated user.
func (s *AuthService) Login(input LoginInput) (*models.User, error) {
	user, err := s.userRepo.FindByUsername(input.Username)
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
func (s *AuthService) GetUser(id uint64) (*models.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}

// UpdateProfileInput holds the editable identity fields of a user.
type UpdateProfileInput struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
}

// UpdateProfile re-validates and saves the user's identity fields.
func (s *AuthService) UpdateProfile(userID uint64, input UpdateProfileInput) (*models.User, error) {
	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}

	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)

	if fieldErrs := validation.ValidateUserProfile(username, input.FirstName, input.LastName, email); fieldErrs.HasErrors() {
		return nil, fieldErrs
	}

	if err := s.ensureIdentityAvailable(username, email, user.ID); err != nil {
		return nil, err
	}

	user.Username = username
	user.FirstName = input.FirstName
	user.LastName = input.LastName
	user.Email = email

	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return user, nil
}

// ChangePasswordInput holds a logged-in password change request.
type ChangePasswordInput struct {
	CurrentPassword      string
	NewPassword          string
	PasswordConfirmation string
}

// ChangePassword verifies the current password, then validates and stores the
// new one.
func (s *AuthService) ChangePassword(userID uint64, input ChangePasswordInput) error {
	user, err := s.GetUser(userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.CurrentPassword)); err != nil {
		return validation.FieldErrors{"password": "Password is invalid"}
	}

	return s.setPassword(user, input.NewPassword, input.PasswordConfirmation)
}

// RequestPasswordReset issues a fresh verification token for the user and
// emails a reset link. The token is persisted before the email is dispatched
// so a send failure never leaves a working link to a missing token.
func (s *AuthService) RequestPasswordReset(username string) error {
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	token := uuid.NewString()
	user.EmailVerificationToken = &token
	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to store verification token: %w", err)
	}

	subject := "Reset Password Link"
	body := fmt.Sprintf("Hi there,\nThis is your link to reset your password: %s/new_password/%s/", s.baseURL, token)
	mailer.SendAsync(s.mailer, subject, body, []string{user.Email})

	return nil
}

// ResetPasswordInput holds a token-authorized password reset.
type ResetPasswordInput struct {
	Token                string
	NewPassword          string
	PasswordConfirmation string
}

// ResetPassword consumes the token and stores the new password. The token is
// cleared on success, so a second consume with the same token fails.
func (s *AuthService) ResetPassword(input ResetPasswordInput) error {
	user, err := s.userRepo.FindByVerificationToken(input.Token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLinkExpired
		}
		return fmt.Errorf("failed to look up token: %w", err)
	}

	user.EmailVerificationToken = nil
	return s.setPassword(user, input.NewPassword, input.PasswordConfirmation)
}

// setPassword validates complexity and confirmation, hashes and saves.
func (s *AuthService) setPassword(user *models.User, newPassword, confirmation string) error {
	if fieldErrs := validation.ValidateNewPassword(newPassword, confirmation); fieldErrs.HasErrors() {
		return fieldErrs
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return ErrFailedToHashPassword
	}

	user.PasswordHash = string(hashedPassword)
	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// ensureIdentityAvailable checks username and email uniqueness, ignoring the
// user identified by selfID.
func (s *AuthService) ensureIdentityAvailable(username, email string, selfID uint64) error {
	if existing, err := s.userRepo.FindByUsername(username); err == nil {
		if existing.ID != selfID {
			return ErrUsernameTaken
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check username: %w", err)
	}

	if existing, err := s.userRepo.FindByEmail(email); err == nil {
		if existing.ID != selfID {
			return ErrEmailTaken
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check email: %w", err)
	}

	return nil
}
