package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"fest-ticketing/internal/auth"
	"fest-ticketing/internal/model"
	"fest-ticketing/internal/repository"
	apperrors "fest-ticketing/pkg/app_errors"
	"fest-ticketing/pkg/logger"

	"go.uber.org/zap"
)

const minPasswordLength = 6

type AuthService interface {
	SignUp(ctx context.Context, req model.SignUpRequest) (*model.AuthResponse, error)
	SignIn(ctx context.Context, req model.SignInRequest) (*model.AuthResponse, error)
	VerifyToken(ctx context.Context, token string) (model.Identity, error)
	Me(ctx context.Context, identity model.Identity) (*model.User, error)
}

type AuthServiceImpl struct {
	users       repository.UserRepository
	tokens      auth.TokenManager
	hasher      auth.PasswordHasher
	adminEmails map[string]struct{}
}

func NewAuthService(users repository.UserRepository, tokens auth.TokenManager, hasher auth.PasswordHasher, adminEmails []string) AuthService {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		admins[strings.ToLower(strings.TrimSpace(e))] = struct{}{}
	}
	return &AuthServiceImpl{
		users:       users,
		tokens:      tokens,
		hasher:      hasher,
		adminEmails: admins,
	}
}

func (s *AuthServiceImpl) SignUp(ctx context.Context, req model.SignUpRequest) (*model.AuthResponse, error) {
	user := &model.User{
		FullName: strings.TrimSpace(req.FullName),
		Email:    strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:    strings.TrimSpace(req.Phone),
		College:  strings.TrimSpace(req.College),
		Course:   strings.TrimSpace(req.Course),
	}
	if err := validateProfile(user); err != nil {
		return nil, err
	}
	if len(req.Password) < minPasswordLength {
		return nil, apperrors.Invalid("password must be at least 6 characters")
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash
	_, user.IsAdmin = s.adminEmails[user.Email]

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	if created.IsAdmin {
		logger.WithComponent("service").Info("admin account created", zap.String("user_id", created.ID.String()))
	}
	return s.issue(created)
}

func (s *AuthServiceImpl) SignIn(ctx context.Context, req model.SignInRequest) (*model.AuthResponse, error) {
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := s.hasher.Compare(user.PasswordHash, req.Password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrInvalidCredentials
	}
	return s.issue(user)
}

func (s *AuthServiceImpl) VerifyToken(_ context.Context, token string) (model.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return model.Identity{}, apperrors.ErrUnauthenticated
	}
	return s.tokens.Verify(token)
}

func (s *AuthServiceImpl) Me(ctx context.Context, identity model.Identity) (*model.User, error) {
	return s.users.FindByID(ctx, identity.UserID)
}

func (s *AuthServiceImpl) issue(user *model.User) (*model.AuthResponse, error) {
	token, exp, err := s.tokens.Issue(user.ID, user.IsAdmin)
	if err != nil {
		return nil, err
	}
	return &model.AuthResponse{
		AccessToken: token,
		TokenType:   auth.TokenType,
		ExpiresAt:   exp,
		User:        user,
	}, nil
}

func validateProfile(u *model.User) error {
	switch {
	case u.FullName == "":
		return apperrors.Invalid("full_name is required")
	case u.Email == "":
		return apperrors.Invalid("email is required")
	case u.Phone == "":
		return apperrors.Invalid("phone is required")
	case u.College == "":
		return apperrors.Invalid("college is required")
	case u.Course == "":
		return apperrors.Invalid("course is required")
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return apperrors.Invalid("email is invalid")
	}
	return nil
}
