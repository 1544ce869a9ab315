package service

import (
	"context"
	"errors"

	usererrors "mybad/internal/users/errors"
	"mybad/internal/users/repository"
	"mybad/pkg/auth"
	"mybad/pkg/config"
	apperrors "mybad/pkg/errors"
	"mybad/pkg/model"

	"golang.org/x/crypto/bcrypt"
)

type UserService interface {
	// ResolveUser maps a pseudo to its user record. Returns the package
	// sentinel on unknown pseudo so callers pick their own HTTP mapping.
	ResolveUser(ctx context.Context, pseudo string) (*model.User, error)

	// Authenticate verifies admin credentials and issues a short-lived JWT.
	Authenticate(ctx context.Context, pseudo, password string) (string, error)
}

type userService struct {
	repo   repository.UserRepository
	issuer *auth.TokenIssuer
	cfg    *config.Config
}

func NewUserService(repo repository.UserRepository, issuer *auth.TokenIssuer, cfg *config.Config) UserService {
	return &userService{
		repo:   repo,
		issuer: issuer,
		cfg:    cfg,
	}
}

func (s *userService) ResolveUser(ctx context.Context, pseudo string) (*model.User, error) {
	if pseudo == "" {
		return nil, usererrors.ErrNotFound
	}
	return s.repo.FindByPseudo(ctx, pseudo)
}

func (s *userService) Authenticate(ctx context.Context, pseudo, password string) (string, error) {
	if pseudo == "" || password == "" {
		return "", apperrors.InvalidInput("Unable to authenticate you: wrong pseudo or password")
	}

	user, err := s.repo.FindByPseudo(ctx, pseudo)
	if err != nil {
		if errors.Is(err, usererrors.ErrNotFound) {
			return "", apperrors.Unauthorized("Unable to authenticate you: wrong pseudo or password")
		}
		return "", apperrors.Internal("Failed to look up user", err)
	}

	if !user.IsAdmin {
		return "", apperrors.Unauthorized("Unable to authenticate you: wrong pseudo or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		s.cfg.Log.Warn("Admin authentication failed", "pseudo", pseudo)
		return "", apperrors.Unauthorized("Unable to authenticate you: wrong pseudo or password")
	}

	token, err := s.issuer.Issue(user.Pseudo, user.IsAdmin)
	if err != nil {
		return "", apperrors.Internal("Failed to issue token", err)
	}

	s.cfg.Log.Info("Admin authenticated", "pseudo", pseudo)
	return token, nil
}
