package identity

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"grimoire/internal/pkg/errors"
	"grimoire/internal/pkg/validator"
	"grimoire/internal/platform/audit"
	"grimoire/internal/platform/auth"
	"grimoire/internal/platform/config"
	"grimoire/internal/platform/models"
	"grimoire/internal/platform/repositories"
)

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type Service struct {
	users    *repositories.UserRepository
	tokens   *Repository
	tokenSvc *auth.TokenService
	audit    *audit.Logger
	cfg      config.TokensConfig
}

func NewService(users *repositories.UserRepository, tokens *Repository, tokenSvc *auth.TokenService, auditLog *audit.Logger, cfg config.TokensConfig) *Service {
	return &Service{
		users:    users,
		tokens:   tokens,
		tokenSvc: tokenSvc,
		audit:    auditLog,
		cfg:      cfg,
	}
}

// Register creates a standard account. The global role is never settable
// here; promotion is a separate admin-only operation.
func (s *Service) Register(email, password string) (*models.User, error) {
	email = validator.NormalizeEmail(email)
	if err := validator.ValidateEmail(email); err != nil {
		return nil, errors.InvalidInput(err.Error())
	}
	if err := validator.ValidatePassword(password); err != nil {
		return nil, errors.InvalidInput(err.Error())
	}

	existing, err := s.users.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.Conflict("Email already registered")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           "usr_" + uuid.NewString(),
		Email:        email,
		PasswordHash: string(hashed),
		GlobalRole:   models.GlobalRoleUser,
		IsActive:     true,
		CreatedAt:    time.Now().Unix(),
	}
	if err := s.users.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Service) Authenticate(email, password string) (*TokenPair, error) {
	email = validator.NormalizeEmail(email)

	user, err := s.users.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.Unauthorized("Invalid credentials")
	}
	if !user.IsActive {
		return nil, errors.Forbidden("Account is disabled")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, errors.Unauthorized("Invalid credentials")
	}

	s.cleanupStale(user.ID)

	return s.issuePair(user, nil)
}

// Renew rotates a refresh token: the presented token is revoked and a fresh
// one issued atomically. A replay of the old token always fails, even if it
// races this call.
func (s *Service) Renew(refreshToken string) (*TokenPair, error) {
	token, err := s.tokens.GetByToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if token == nil || token.Revoked {
		return nil, errors.Unauthorized("Invalid refresh token")
	}
	now := time.Now().Unix()
	if token.ExpiresAt < now {
		return nil, errors.Unauthorized("Refresh token expired")
	}

	user, err := s.users.GetByID(token.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.Unauthorized("Invalid refresh token")
	}
	if !user.IsActive {
		return nil, errors.Forbidden("Account is disabled")
	}

	pair, err := s.issuePair(user, token)
	if err != nil {
		return nil, err
	}

	s.cleanupStale(user.ID)
	return pair, nil
}

// issuePair signs an access token and persists a new refresh token. When
// rotating is non-nil the old token is revoked in the same transaction as the
// new insert, guarded so only one concurrent renewal can win.
func (s *Service) issuePair(user *models.User, rotating *models.RefreshToken) (*TokenPair, error) {
	accessToken, err := s.tokenSvc.GenerateAccessToken(user.ID, user.Email, user.GlobalRole)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	refresh := &models.RefreshToken{
		ID:        "tok_" + uuid.NewString(),
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.cfg.RefreshTokenTTL).Unix(),
		CreatedAt: now.Unix(),
	}

	if rotating == nil {
		if err := s.tokens.Create(refresh); err != nil {
			return nil, err
		}
	} else {
		tx, err := s.tokens.BeginTx()
		if err != nil {
			return nil, err
		}
		defer tx.Rollback()

		won, err := s.tokens.RevokeTx(tx, rotating.ID, now.Unix())
		if err != nil {
			return nil, err
		}
		if !won {
			// a concurrent renewal rotated this token first
			return nil, errors.Unauthorized("Invalid refresh token")
		}
		if err := s.tokens.CreateTx(tx, refresh); err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, err
		}
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refresh.Token,
		TokenType:    "bearer",
	}, nil
}

// Revoke logs out a single device.
func (s *Service) Revoke(refreshToken string) error {
	token, err := s.tokens.GetByToken(refreshToken)
	if err != nil {
		return err
	}
	if token == nil {
		return errors.NotFound("Refresh token not found")
	}
	if token.Revoked {
		return errors.AlreadyRevoked("Token already revoked")
	}
	return s.tokens.Revoke(token.ID, time.Now().Unix())
}

// RevokeAll logs the owning user out of every device. The presented token
// must itself still be live.
func (s *Service) RevokeAll(refreshToken string) (int, error) {
	token, err := s.tokens.GetByToken(refreshToken)
	if err != nil {
		return 0, err
	}
	if token == nil {
		return 0, errors.NotFound("Refresh token not found")
	}
	if token.Revoked {
		return 0, errors.AlreadyRevoked("Token already revoked")
	}
	if token.ExpiresAt < time.Now().Unix() {
		return 0, errors.Unauthorized("Refresh token expired")
	}

	return s.tokens.RevokeAllForUser(token.UserID, time.Now().Unix())
}

// Promote overwrites the target's global role. Only a global admin may call
// this; there is deliberately no self-demotion or last-admin guard.
func (s *Service) Promote(actor *models.User, targetUserID, newRole string) (*models.User, error) {
	if actor.GlobalRole != models.GlobalRoleAdmin {
		return nil, errors.Forbidden("Admin privileges required")
	}
	if newRole != models.GlobalRoleUser && newRole != models.GlobalRoleAdmin {
		return nil, errors.InvalidInput("Unknown global role")
	}

	target, err := s.users.GetByID(targetUserID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, errors.NotFound("User not found")
	}

	if err := s.users.UpdateGlobalRole(target.ID, newRole); err != nil {
		return nil, err
	}
	target.GlobalRole = newRole

	if s.audit != nil {
		s.audit.Log("", actor.ID, "user.promote", "user", target.ID, models.JSONMap{"new_role": newRole})
	}
	return target, nil
}

func (s *Service) cleanupStale(userID string) {
	now := time.Now()
	cutoff := now.Add(-s.cfg.Retention).Unix()
	// best effort; failures here never block the auth call
	_ = s.tokens.DeleteStale(userID, now.Unix(), cutoff)
}
