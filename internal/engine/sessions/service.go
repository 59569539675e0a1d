// Package sessions manages RPG sessions ("JDRs") inside an organization:
// the session registry, the session-scope membership ledger with its
// capacity-limited join flow, and the MJ authority checks the rest of the
// game engine builds on.
package sessions

import (
	"time"

	"github.com/google/uuid"

	"grimoire/internal/engine/orgs"
	"grimoire/internal/engine/roles"
	"grimoire/internal/pkg/errors"
	"grimoire/internal/pkg/validator"
	"grimoire/internal/platform/audit"
	"grimoire/internal/platform/models"
)

type Service struct {
	repo  *Repository
	orgs  *orgs.Service
	audit *audit.Logger
}

func NewService(repo *Repository, orgSvc *orgs.Service, auditLog *audit.Logger) *Service {
	return &Service{repo: repo, orgs: orgSvc, audit: auditLog}
}

// RequireMJ fails unless the user is the session's designated MJ. This is an
// equality check against the session record, not a role-rank check.
func (s *Service) RequireMJ(userID, sessionID string) (*models.Session, error) {
	session, err := s.repo.GetByID(sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, errors.NotFound("Session not found")
	}
	if session.MJID != userID {
		return nil, errors.Forbidden("Only the session MJ can do this")
	}
	return session, nil
}

// RequireActivePlayer fails unless the user holds an active session
// membership.
func (s *Service) RequireActivePlayer(userID, sessionID string) error {
	m, err := s.repo.GetActiveMembership(userID, sessionID)
	if err != nil {
		return err
	}
	if m == nil {
		return errors.Forbidden("You are not an active player in this session")
	}
	return nil
}

func (s *Service) Get(sessionID string) (*models.Session, error) {
	session, err := s.repo.GetByID(sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, errors.NotFound("Session not found")
	}
	return session, nil
}

// GetForUser is the read used by the HTTP surface: the caller must belong
// to the session's organization.
func (s *Service) GetForUser(user *models.User, sessionID string) (*models.Session, error) {
	session, err := s.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.orgs.RequireMember(user.ID, session.OrganizationID); err != nil {
		return nil, err
	}
	return session, nil
}

type CreateInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	MaxPlayers  int    `json:"max_players"`
}

// Create registers a session with the creator as MJ and provisions its board
// with the default canvas in the same transaction.
func (s *Service) Create(user *models.User, orgID string, in CreateInput) (*models.Session, error) {
	if err := s.orgs.RequireRole(user.ID, orgID, roles.MJ); err != nil {
		return nil, err
	}
	if err := validator.ValidateName(in.Name); err != nil {
		return nil, errors.InvalidInput(err.Error())
	}
	if in.MaxPlayers <= 0 {
		in.MaxPlayers = 5
	}

	now := time.Now().Unix()
	session := &models.Session{
		ID:             "jdr_" + uuid.NewString(),
		OrganizationID: orgID,
		Name:           in.Name,
		Description:    in.Description,
		Status:         models.SessionDraft,
		MJID:           user.ID,
		MaxPlayers:     in.MaxPlayers,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	board := &models.Board{
		ID:        "brd_" + uuid.NewString(),
		SessionID: session.ID,
		Config:    models.DefaultBoardConfig(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	tx, err := s.repo.BeginTx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.repo.CreateTx(tx, session, board); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *Service) List(user *models.User, orgID string) ([]*models.Session, error) {
	if err := s.orgs.RequireMember(user.ID, orgID); err != nil {
		return nil, err
	}
	return s.repo.ListByOrganization(orgID)
}

type UpdateInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	MaxPlayers  *int    `json:"max_players"`
}

// Update applies only the supplied fields. The MJ may set any status; no
// transition graph is enforced.
func (s *Service) Update(user *models.User, sessionID string, in UpdateInput) (*models.Session, error) {
	session, err := s.RequireMJ(user.ID, sessionID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		if err := validator.ValidateName(*in.Name); err != nil {
			return nil, errors.InvalidInput(err.Error())
		}
		session.Name = *in.Name
	}
	if in.Description != nil {
		session.Description = *in.Description
	}
	if in.Status != nil {
		session.Status = *in.Status
	}
	if in.MaxPlayers != nil {
		if *in.MaxPlayers <= 0 {
			return nil, errors.InvalidInput("max_players must be positive")
		}
		session.MaxPlayers = *in.MaxPlayers
	}
	session.UpdatedAt = time.Now().Unix()

	if err := s.repo.Update(session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *Service) Delete(user *models.User, sessionID string) error {
	if _, err := s.RequireMJ(user.ID, sessionID); err != nil {
		return err
	}
	return s.repo.Delete(sessionID)
}

// Join requests a seat. The session must be open or in progress, the caller
// must already belong to the organization, and the duplicate and capacity
// checks run in one transaction so concurrent joins cannot overbook.
func (s *Service) Join(user *models.User, sessionID, message string) (*models.SessionMembership, error) {
	session, err := s.repo.GetByID(sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, errors.NotFound("Session not found")
	}
	if session.Status != models.SessionOpen && session.Status != models.SessionInProgress {
		return nil, errors.InvalidInput("Session is not accepting players")
	}
	if err := s.orgs.RequireMember(user.ID, session.OrganizationID); err != nil {
		return nil, err
	}

	tx, err := s.repo.BeginTx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	existing, err := s.repo.GetMembershipTx(tx, user.ID, sessionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.Conflict("Already joined or pending approval")
	}
	active, err := s.repo.CountActiveTx(tx, sessionID)
	if err != nil {
		return nil, err
	}
	if active >= session.MaxPlayers {
		return nil, errors.InvalidInput("Session is full")
	}

	membership := &models.SessionMembership{
		ID:        "smb_" + uuid.NewString(),
		UserID:    user.ID,
		SessionID: sessionID,
		Status:    models.PlayerPending,
		Message:   message,
		JoinedAt:  time.Now().Unix(),
	}
	if err := s.repo.CreateMembershipTx(tx, membership); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return membership, nil
}

// ApprovePlayer transitions a pending session membership to active. Only the
// session MJ may approve.
func (s *Service) ApprovePlayer(user *models.User, sessionID, membershipID string) (*models.SessionMembership, error) {
	session, err := s.RequireMJ(user.ID, sessionID)
	if err != nil {
		return nil, err
	}

	membership, err := s.repo.GetPendingMembership(membershipID, sessionID)
	if err != nil {
		return nil, err
	}
	if membership == nil {
		return nil, errors.NotFound("Pending membership not found")
	}

	now := time.Now().Unix()
	if err := s.repo.ApproveMembership(membership.ID, user.ID, now); err != nil {
		return nil, err
	}
	membership.Status = models.PlayerActive
	membership.ApprovedByID = &user.ID
	membership.ApprovedAt = &now

	if s.audit != nil {
		s.audit.Log(session.OrganizationID, user.ID, "session.approve_player", "session_membership", membership.ID, nil)
	}
	return membership, nil
}

func (s *Service) ListPlayers(user *models.User, sessionID string) ([]*models.SessionMembership, error) {
	session, err := s.repo.GetByID(sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, errors.NotFound("Session not found")
	}
	if session.MJID != user.ID {
		if err := s.RequireActivePlayer(user.ID, sessionID); err != nil {
			return nil, err
		}
	}
	return s.repo.ListMemberships(sessionID)
}
