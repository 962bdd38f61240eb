package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"Backstage_Jobs/internal/apperr"
	"Backstage_Jobs/internal/model"
	"Backstage_Jobs/internal/pkg"
	"Backstage_Jobs/internal/repository/mysql"
	"Backstage_Jobs/internal/testutil"
)

var errNoToken = errors.New("token not found")

type memTokens struct {
	tokens map[uint64]string
}

func newMemTokens() *memTokens { return &memTokens{tokens: map[uint64]string{}} }

func (m *memTokens) Add(_ context.Context, userID uint64, token string) error {
	m.tokens[userID] = token
	return nil
}

func (m *memTokens) Get(_ context.Context, userID uint64) (string, error) {
	tok, ok := m.tokens[userID]
	if !ok {
		return "", errNoToken
	}
	return tok, nil
}

func (m *memTokens) Extend(context.Context, uint64) error { return nil }

func (m *memTokens) Delete(_ context.Context, userID uint64) error {
	delete(m.tokens, userID)
	return nil
}

func newUserService(t *testing.T) (*UserService, *memTokens, *pkg.TokenIssuer) {
	t.Helper()
	db := testutil.NewDB(t)
	tokens := newMemTokens()
	issuer := pkg.NewTokenIssuer("access", "refresh", time.Minute, time.Hour)
	return NewUserService(&mysql.UserRepository{DB: db}, tokens, issuer, zap.NewNop()), tokens, issuer
}

func TestRegisterAndLogin(t *testing.T) {
	svc, tokens, issuer := newUserService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "mira", "correct horse", "Mira@Example.com", model.AccountArtist)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Email != "mira@example.com" || u.Password == "correct horse" {
		t.Fatalf("email not normalized or password stored in clear: %+v", u)
	}

	_, err = svc.Register(ctx, "mira", "another pass", "other@example.com", "")
	if err == nil {
		t.Fatalf("duplicate username accepted")
	}

	for _, login := range []string{"mira", "mira@example.com"} {
		pair, err := svc.Login(ctx, login, "correct horse")
		if err != nil {
			t.Fatalf("Login(%s): %v", login, err)
		}
		claims, err := issuer.ParseAccess(pair.AccessToken)
		if err != nil || claims.UserID != u.ID || claims.AccountType != model.AccountArtist {
			t.Fatalf("claims = %+v, %v", claims, err)
		}
		if tokens.tokens[u.ID] != pair.AccessToken {
			t.Fatalf("live session not recorded")
		}
	}

	_, err = svc.Login(ctx, "mira", "wrong")
	wantKind(t, err, apperr.KindUnauthorized)
	_, err = svc.Login(ctx, "nobody", "whatever")
	wantKind(t, err, apperr.KindUnauthorized)
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := newUserService(t)
	ctx := context.Background()
	cases := []struct{ name, user, pass, email, kind string }{
		{"empty username", "", "long enough", "a@example.com", ""},
		{"bad email", "a", "long enough", "not-an-email", ""},
		{"short password", "a", "short", "a@example.com", ""},
		{"bad account type", "a", "long enough", "a@example.com", "label"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := svc.Register(ctx, c.user, c.pass, c.email, c.kind)
			wantKind(t, err, apperr.KindValidationFailure)
		})
	}
}

func TestRefreshAndLogout(t *testing.T) {
	svc, tokens, _ := newUserService(t)
	ctx := context.Background()
	u, err := svc.Register(ctx, "dj", "turntables1", "dj@example.com", model.AccountOther)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	pair, err := svc.Login(ctx, "dj", "turntables1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	next, err := svc.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if tokens.tokens[u.ID] != next.AccessToken {
		t.Fatalf("refresh did not rotate the live session")
	}

	_, err = svc.Refresh(ctx, pair.AccessToken)
	wantKind(t, err, apperr.KindUnauthorized)

	if err := svc.Logout(ctx, u.ID); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	_, err = svc.Refresh(ctx, next.RefreshToken)
	wantKind(t, err, apperr.KindUnauthorized)
}

func TestChangePassword(t *testing.T) {
	svc, tokens, _ := newUserService(t)
	ctx := context.Background()
	u, err := svc.Register(ctx, "keys", "old-password", "keys@example.com", model.AccountArtist)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Login(ctx, "keys", "old-password"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	wantKind(t, svc.ChangePassword(ctx, u.ID, "wrong", "new-password"), apperr.KindValidationFailure)
	if err := svc.ChangePassword(ctx, u.ID, "old-password", "new-password"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, ok := tokens.tokens[u.ID]; ok {
		t.Fatalf("changing the password must end the session")
	}
	if _, err := svc.Login(ctx, "keys", "new-password"); err != nil {
		t.Fatalf("Login with new password: %v", err)
	}
}
