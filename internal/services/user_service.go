package services

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "goze/internal/errors"
	"goze/internal/models"
)

// LockoutPolicy controls when repeated bad passwords lock an account.
type LockoutPolicy struct {
	MaxAttempts int
	Duration    time.Duration
}

// DefaultLockoutPolicy locks an account for 30 minutes after 5 bad passwords.
var DefaultLockoutPolicy = LockoutPolicy{MaxAttempts: 5, Duration: 30 * time.Minute}

// userService handles user-related business logic.
type userService struct {
	db      *gorm.DB
	lockout LockoutPolicy
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB, lockout LockoutPolicy) UserServicer {
	if lockout.MaxAttempts <= 0 || lockout.Duration <= 0 {
		lockout = DefaultLockoutPolicy
	}
	return &userService{db: db, lockout: lockout}
}

// CreateUser registers a new active user
func (s *userService) CreateUser(username, email, password, firstName, lastName string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" || password == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "username, email and password are required")
	}

	exists, err := s.UsernameExists(username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.WithMessage(apperrors.ErrDuplicateResource, "Username is already taken")
	}
	exists, err = s.EmailExists(email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.WithMessage(apperrors.ErrDuplicateResource, "Email is already registered")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user := &models.User{
		Username:  username,
		Email:     email,
		Password:  string(hashedPassword),
		FirstName: firstName,
		LastName:  lastName,
		IsActive:  true,
	}

	if err := s.db.Create(user).Error; err != nil {
		// Lost a race with a concurrent registration.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrDuplicateResource
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return user, nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by exact username
func (s *userService) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("username = ?", strings.TrimSpace(username)).First(&user).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &user, nil
}

// GetUserByLogin resolves a login name, trying the username first and then the email.
func (s *userService) GetUserByLogin(login string) (*models.User, error) {
	user, err := s.GetUserByUsername(login)
	if err == nil || !errors.Is(err, apperrors.ErrUserNotFound) {
		return user, err
	}

	var byEmail models.User
	if err := s.db.Where("email = ?", strings.ToLower(strings.TrimSpace(login))).First(&byEmail).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &byEmail, nil
}

// UsernameExists reports whether the username is taken
func (s *userService) UsernameExists(username string) (bool, error) {
	var count int64
	if err := s.db.Model(&models.User{}).Where("username = ?", strings.TrimSpace(username)).Count(&count).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count > 0, nil
}

// EmailExists reports whether the email is registered
func (s *userService) EmailExists(email string) (bool, error) {
	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).Count(&count).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count > 0, nil
}

// VerifyPassword checks if the provided password matches the stored hash
func (s *userService) VerifyPassword(user *models.User, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password))
	return err == nil
}

// RecordFailedLogin increments the failed-attempt counter and locks the
// account once the counter reaches the policy threshold. The increment is
// done in SQL so concurrent failures are all counted.
func (s *userService) RecordFailedLogin(user *models.User, now time.Time) (*models.User, error) {
	var updated models.User
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).
			UpdateColumn("failed_login_attempts", gorm.Expr("failed_login_attempts + 1")).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", user.ID).First(&updated).Error; err != nil {
			return err
		}
		if updated.FailedLoginAttempts >= s.lockout.MaxAttempts {
			lockedUntil := now.Add(s.lockout.Duration)
			if err := tx.Model(&updated).UpdateColumn("locked_until", lockedUntil).Error; err != nil {
				return err
			}
			updated.LockedUntil = &lockedUntil
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &updated, nil
}

// RecordSuccessfulLogin clears the failed-attempt counter and any lockout and
// stamps the last login time.
func (s *userService) RecordSuccessfulLogin(user *models.User, now time.Time) error {
	err := s.db.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
		"failed_login_attempts": 0,
		"locked_until":          nil,
		"last_login_at":         now,
	}).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	user.LastLoginAt = &now
	return nil
}

func notFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrUserNotFound
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}
