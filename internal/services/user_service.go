// Package services – UserService
//
// Users are identified by the caller; the service only stores the display
// profile shown in order aggregations.
package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/tbourn/go-meal-backend/internal/domain"
	"github.com/tbourn/go-meal-backend/internal/repo"
)

// UserService manages user profiles.
type UserService struct {
	DB *gorm.DB
}

// Ensure creates the profile row for userID on first sight and returns it.
func (s *UserService) Ensure(ctx context.Context, userID string) (*domain.User, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrIDRequired
	}
	return repo.EnsureUser(ctx, s.DB, userID)
}

// Me returns the caller's profile, provisioning it if needed.
func (s *UserService) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.Ensure(ctx, userID)
}

// UpdateProfile sets the nickname and/or avatar URL. Nil fields are left
// unchanged; a blank nickname clears it (display falls back to the id).
func (s *UserService) UpdateProfile(ctx context.Context, userID string, nickname, avatarURL *string) (*domain.User, error) {
	if nickname != nil {
		n := normalizeName(*nickname)
		if utf8.RuneCountInString(n) > defaultNicknameMaxLen {
			return nil, ErrNameTooLong
		}
		nickname = &n
	}
	if avatarURL != nil {
		a := strings.TrimSpace(*avatarURL)
		avatarURL = &a
	}

	var out *domain.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.ensureIn(ctx, tx, userID); err != nil {
			return err
		}
		if err := repo.UpdateUserProfile(ctx, tx, userID, nickname, avatarURL); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		u, err := repo.GetUser(ctx, tx, userID)
		out = u
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *UserService) ensureIn(ctx context.Context, tx *gorm.DB, userID string) (*domain.User, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrIDRequired
	}
	return repo.EnsureUser(ctx, tx, userID)
}
