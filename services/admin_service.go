// tips-publish-system/services/admin_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tips-publish-system/models"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// PasswordCost is the bcrypt work factor for admin passwords.
const PasswordCost = 12

// ErrInvalidCredentials is returned for an unknown username or a wrong password.
var ErrInvalidCredentials = errors.New("invalid username or password")

type AdminService struct {
	DB    *gorm.DB
	clock clockwork.Clock
}

func NewAdminService(db *gorm.DB, clock clockwork.Clock) *AdminService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &AdminService{DB: db, clock: clock}
}

// HashPassword returns the bcrypt hash stored in ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// EnsureAdmin creates the admin account or refreshes its password hash.
func (s *AdminService) EnsureAdmin(ctx context.Context, username, passwordHash string) error {
	username = strings.TrimSpace(username)
	if username == "" || passwordHash == "" {
		log.Warn().Msg("⚠️ ADMIN_USERNAME / ADMIN_PASSWORD_HASH not set, admin login disabled")
		return nil
	}
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return fmt.Errorf("ADMIN_PASSWORD_HASH is not a bcrypt hash: %w", err)
	}

	var admin models.Admin
	err := s.DB.WithContext(ctx).Where("username = ?", username).First(&admin).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		admin = models.Admin{Username: username, PasswordHash: passwordHash}
		if err := s.DB.WithContext(ctx).Create(&admin).Error; err != nil {
			return fmt.Errorf("create admin %q: %w", username, err)
		}
		log.Info().Str("username", username).Msg("👤 Admin account created")
		return nil
	case err != nil:
		return fmt.Errorf("load admin %q: %w", username, err)
	}

	if admin.PasswordHash != passwordHash {
		if err := s.DB.WithContext(ctx).Model(&admin).Update("password_hash", passwordHash).Error; err != nil {
			return fmt.Errorf("update admin %q: %w", username, err)
		}
		log.Info().Str("username", username).Msg("🔑 Admin password updated")
	}
	return nil
}

// Authenticate checks the credentials and records the login time.
func (s *AdminService) Authenticate(ctx context.Context, username, password string) (*models.Admin, error) {
	var admin models.Admin
	err := s.DB.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load admin: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.clock.Now()
	if err := s.DB.WithContext(ctx).Model(&admin).Update("last_login_at", now).Error; err != nil {
		log.Warn().Err(err).Str("username", admin.Username).Msg("failed to record login time")
	} else {
		admin.LastLoginAt = &now
	}
	return &admin, nil
}
