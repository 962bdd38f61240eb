package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"Backstage_Jobs/internal/apperr"
	"Backstage_Jobs/internal/model"
	"Backstage_Jobs/internal/pkg"
	"Backstage_Jobs/internal/repository/mysql"
)

const minPasswordLen = 8

// TokenStore holds the single live access token per user.
type TokenStore interface {
	Add(ctx context.Context, userID uint64, token string) error
	Get(ctx context.Context, userID uint64) (string, error)
	Extend(ctx context.Context, userID uint64) error
	Delete(ctx context.Context, userID uint64) error
}

type UserService struct {
	repo   *mysql.UserRepository
	tokens TokenStore
	issuer *pkg.TokenIssuer
	logger *zap.Logger
}

func NewUserService(repo *mysql.UserRepository, tokens TokenStore, issuer *pkg.TokenIssuer, logger *zap.Logger) *UserService {
	return &UserService{repo: repo, tokens: tokens, issuer: issuer, logger: logger}
}

func (s *UserService) Register(ctx context.Context, username, password, email, accountType string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))
	if username == "" || len(username) > 32 {
		return nil, apperr.ValidationFailure("username must be 1-32 characters", nil)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperr.ValidationFailure("invalid email", err)
	}
	if len(password) < minPasswordLen {
		return nil, apperr.ValidationFailure("password is too short", nil)
	}
	if accountType == "" {
		accountType = model.AccountOther
	}
	if _, ok := posterTypes[accountType]; !ok {
		return nil, apperr.ValidationFailure("unknown account_type", nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.RetrievalFailure("hash password", err)
	}
	user := &model.User{
		Username:    username,
		Password:    string(hash),
		Email:       email,
		AccountType: accountType,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.ValidationFailure("username or email already taken", err)
		}
		return nil, apperr.RetrievalFailure("create user", err)
	}
	return user, nil
}

// Login issues a token pair and makes its access token the user's only live session.
func (s *UserService) Login(ctx context.Context, login, password string) (*pkg.Pair, error) {
	user, err := s.repo.FindByLogin(ctx, strings.TrimSpace(login))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Unauthorized("invalid credentials", nil)
		}
		return nil, apperr.RetrievalFailure("load user", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, apperr.Unauthorized("invalid credentials", nil)
	}
	return s.issue(ctx, user.ID, user.AccountType)
}

func (s *UserService) Logout(ctx context.Context, userID uint64) error {
	if err := s.tokens.Delete(ctx, userID); err != nil {
		return apperr.RetrievalFailure("logout", err)
	}
	return nil
}

// Refresh trades a refresh token for a new pair while the session is still live.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*pkg.Pair, error) {
	claims, err := s.issuer.ParseRefresh(refreshToken)
	if err != nil {
		return nil, apperr.Unauthorized("invalid refresh token", err)
	}
	if _, err := s.tokens.Get(ctx, claims.UserID); err != nil {
		return nil, apperr.Unauthorized("session ended", err)
	}
	return s.issue(ctx, claims.UserID, claims.AccountType)
}

// ChangePassword ends the current session on success.
func (s *UserService) ChangePassword(ctx context.Context, userID uint64, oldPassword, newPassword string) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return storeErr(err, "user")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)) != nil {
		return apperr.ValidationFailure("old password is incorrect", nil)
	}
	if len(newPassword) < minPasswordLen {
		return apperr.ValidationFailure("password is too short", nil)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperr.RetrievalFailure("hash password", err)
	}
	if err := s.repo.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return apperr.RetrievalFailure("update password", err)
	}
	return s.Logout(ctx, userID)
}

func (s *UserService) issue(ctx context.Context, userID uint64, accountType string) (*pkg.Pair, error) {
	pair, err := s.issuer.GeneratePair(userID, accountType)
	if err != nil {
		return nil, apperr.RetrievalFailure("sign token", err)
	}
	if err := s.tokens.Add(ctx, userID, pair.AccessToken); err != nil {
		return nil, apperr.RetrievalFailure("store session", err)
	}
	s.logger.Info("session issued", zap.Uint64("user_id", userID))
	return pair, nil
}
