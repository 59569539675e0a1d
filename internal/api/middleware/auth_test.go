package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	apiContext "grimoire/internal/api/context"
	"grimoire/internal/platform/auth"
	"grimoire/internal/platform/config"
	"grimoire/internal/platform/models"
	"grimoire/internal/platform/repositories"
)

func newAuthFixture(t *testing.T) (*AuthMiddleware, *auth.TokenService, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	tokenSvc := auth.NewTokenService(config.JWTConfig{
		Secret:         "test-secret",
		AccessTokenTTL: time.Minute,
	})
	return NewAuthMiddleware(tokenSvc, repositories.NewUserRepository(db)), tokenSvc, mock
}

func passThrough(t *testing.T, gotUser **models.User) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		user, _ := r.Context().Value(apiContext.User).(*models.User)
		*gotUser = user
		w.WriteHeader(http.StatusOK)
	}
}

func TestHandle_RejectsMissingAndMalformedHeaders(t *testing.T) {
	mw, _, _ := newAuthFixture(t)

	var gotUser *models.User
	handler := mw.Handle(passThrough(t, &gotUser))

	cases := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"no scheme", "sometoken"},
		{"wrong scheme", "Basic sometoken"},
		{"garbage token", "Bearer not-a-jwt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
			if gotUser != nil {
				t.Fatal("handler ran despite rejected request")
			}
		})
	}
}

func TestHandle_ResolvesUserFromValidToken(t *testing.T) {
	mw, tokenSvc, mock := newAuthFixture(t)

	token, err := tokenSvc.GenerateAccessToken("usr_1", "mj@example.com", models.GlobalRoleUser)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "global_role", "is_active", "created_at"}).
		AddRow("usr_1", "mj@example.com", "x", models.GlobalRoleUser, true, time.Now().Unix())
	mock.ExpectQuery("SELECT id, email, password_hash").WithArgs("usr_1").WillReturnRows(rows)

	var gotUser *models.User
	handler := mw.Handle(passThrough(t, &gotUser))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if gotUser == nil || gotUser.ID != "usr_1" {
		t.Fatalf("user in context = %+v, want usr_1", gotUser)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestHandle_DisabledAccountIsForbidden(t *testing.T) {
	mw, tokenSvc, mock := newAuthFixture(t)

	token, err := tokenSvc.GenerateAccessToken("usr_2", "banned@example.com", models.GlobalRoleUser)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "global_role", "is_active", "created_at"}).
		AddRow("usr_2", "banned@example.com", "x", models.GlobalRoleUser, false, time.Now().Unix())
	mock.ExpectQuery("SELECT id, email, password_hash").WithArgs("usr_2").WillReturnRows(rows)

	var gotUser *models.User
	handler := mw.Handle(passThrough(t, &gotUser))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if gotUser != nil {
		t.Fatal("handler ran for disabled account")
	}
}

func TestHandle_UnknownUserIsUnauthorized(t *testing.T) {
	mw, tokenSvc, mock := newAuthFixture(t)

	token, err := tokenSvc.GenerateAccessToken("usr_gone", "gone@example.com", models.GlobalRoleUser)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "global_role", "is_active", "created_at"})
	mock.ExpectQuery("SELECT id, email, password_hash").WithArgs("usr_gone").WillReturnRows(rows)

	var gotUser *models.User
	handler := mw.Handle(passThrough(t, &gotUser))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
