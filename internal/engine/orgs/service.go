// Package orgs implements the organization registry and the organization
// scope of the membership ledger: who belongs where, with which role, and
// which callers may change that.
package orgs

import (
	"time"

	"github.com/google/uuid"

	"grimoire/internal/engine/roles"
	"grimoire/internal/pkg/errors"
	"grimoire/internal/pkg/validator"
	"grimoire/internal/platform/audit"
	"grimoire/internal/platform/models"
	"grimoire/internal/platform/repositories"
)

type Service struct {
	orgs        *repositories.OrganizationRepository
	memberships *repositories.MembershipRepository
	audit       *audit.Logger
}

func NewService(orgs *repositories.OrganizationRepository, memberships *repositories.MembershipRepository, auditLog *audit.Logger) *Service {
	return &Service{orgs: orgs, memberships: memberships, audit: auditLog}
}

// RequireMember fails unless the user holds an active membership in the
// organization.
func (s *Service) RequireMember(userID, orgID string) error {
	m, err := s.memberships.GetActive(userID, orgID)
	if err != nil {
		return err
	}
	if m == nil {
		return errors.Forbidden("You are not a member of this organization")
	}
	return nil
}

// RequireRole fails unless the user holds an active membership whose role
// ranks at or above minRole.
func (s *Service) RequireRole(userID, orgID, minRole string) error {
	m, err := s.memberships.GetActive(userID, orgID)
	if err != nil {
		return err
	}
	if m == nil || !roles.HasAtLeast(m.Role, minRole) {
		return errors.Forbidden("Requires at least " + minRole + " role in this organization")
	}
	return nil
}

type CreateInput struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Visibility  string `json:"visibility"`
	JoinMode    string `json:"join_mode"`
}

// Create registers an organization and atomically grants the creator an
// active owner membership. No organization exists without exactly one owner.
func (s *Service) Create(user *models.User, in CreateInput) (*models.Organization, error) {
	if err := validator.ValidateName(in.Name); err != nil {
		return nil, errors.InvalidInput(err.Error())
	}
	slug := validator.NormalizeSlug(in.Slug)
	if err := validator.ValidateSlug(slug); err != nil {
		return nil, errors.InvalidInput(err.Error())
	}
	if in.Visibility == "" {
		in.Visibility = models.VisibilityPublic
	}
	if in.JoinMode == "" {
		in.JoinMode = models.JoinModeApproval
	}
	if !validJoinMode(in.JoinMode) {
		return nil, errors.InvalidInput("Unknown join mode")
	}
	if in.Visibility != models.VisibilityPublic && in.Visibility != models.VisibilityPrivate {
		return nil, errors.InvalidInput("Unknown visibility")
	}

	existing, err := s.orgs.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.Conflict("Organization slug already exists")
	}

	now := time.Now().Unix()
	org := &models.Organization{
		ID:          "org_" + uuid.NewString(),
		Name:        in.Name,
		Slug:        slug,
		Description: in.Description,
		Visibility:  in.Visibility,
		JoinMode:    in.JoinMode,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	membership := &models.OrganizationMembership{
		ID:             "mem_" + uuid.NewString(),
		UserID:         user.ID,
		OrganizationID: org.ID,
		Role:           roles.Owner,
		Status:         models.MembershipActive,
		JoinedAt:       now,
	}

	tx, err := s.orgs.BeginTx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.orgs.CreateTx(tx, org); err != nil {
		return nil, err
	}
	if err := s.memberships.CreateTx(tx, membership); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return org, nil
}

func (s *Service) Get(user *models.User, orgID string) (*models.Organization, error) {
	if err := s.RequireMember(user.ID, orgID); err != nil {
		return nil, err
	}
	org, err := s.orgs.GetByID(orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, errors.NotFound("Organization not found")
	}
	return org, nil
}

func (s *Service) ListMine(user *models.User) ([]*models.Organization, error) {
	return s.orgs.ListByMember(user.ID)
}

type UpdateInput struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	Visibility  *string `json:"visibility"`
	JoinMode    *string `json:"join_mode"`
	IsActive    *bool   `json:"is_active"`
}

// Update applies only the supplied fields. Requires admin rank in the
// organization; a slug change is re-checked for uniqueness.
func (s *Service) Update(user *models.User, orgID string, in UpdateInput) (*models.Organization, error) {
	if err := s.RequireRole(user.ID, orgID, roles.Admin); err != nil {
		return nil, err
	}

	org, err := s.orgs.GetByID(orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, errors.NotFound("Organization not found")
	}

	if in.Slug != nil {
		slug := validator.NormalizeSlug(*in.Slug)
		if err := validator.ValidateSlug(slug); err != nil {
			return nil, errors.InvalidInput(err.Error())
		}
		if slug != org.Slug {
			other, err := s.orgs.GetBySlug(slug)
			if err != nil {
				return nil, err
			}
			if other != nil && other.ID != org.ID {
				return nil, errors.Conflict("Slug already in use")
			}
		}
		org.Slug = slug
	}
	if in.Name != nil {
		if err := validator.ValidateName(*in.Name); err != nil {
			return nil, errors.InvalidInput(err.Error())
		}
		org.Name = *in.Name
	}
	if in.Description != nil {
		org.Description = *in.Description
	}
	if in.Visibility != nil {
		if *in.Visibility != models.VisibilityPublic && *in.Visibility != models.VisibilityPrivate {
			return nil, errors.InvalidInput("Unknown visibility")
		}
		org.Visibility = *in.Visibility
	}
	if in.JoinMode != nil {
		if !validJoinMode(*in.JoinMode) {
			return nil, errors.InvalidInput("Unknown join mode")
		}
		org.JoinMode = *in.JoinMode
	}
	if in.IsActive != nil {
		org.IsActive = *in.IsActive
	}

	if err := s.orgs.Update(org); err != nil {
		return nil, err
	}
	return org, nil
}

// Delete removes an organization and cascades to everything it owns.
// Restricted to global admins; the organization role hierarchy does not
// grant this.
func (s *Service) Delete(actor *models.User, orgID string) error {
	if actor.GlobalRole != models.GlobalRoleAdmin {
		return errors.Forbidden("Admin privileges required")
	}
	org, err := s.orgs.GetByID(orgID)
	if err != nil {
		return err
	}
	if org == nil {
		return errors.NotFound("Organization not found")
	}
	if err := s.orgs.Delete(orgID); err != nil {
		return err
	}
	if s.audit != nil {
		s.audit.Log(orgID, actor.ID, "organization.delete", "organization", orgID, nil)
	}
	return nil
}

// Join requests membership. Open organizations admit immediately; approval
// organizations create a pending request; closed and invite-only refuse.
func (s *Service) Join(user *models.User, orgID, message string) (*models.OrganizationMembership, error) {
	org, err := s.orgs.GetByID(orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, errors.NotFound("Organization not found")
	}
	if !org.IsActive {
		return nil, errors.InvalidInput("Organization is not active")
	}

	existing, err := s.memberships.GetActiveOrPending(user.ID, orgID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.Conflict("Already a member or pending approval")
	}

	switch org.JoinMode {
	case models.JoinModeClosed:
		return nil, errors.Forbidden("This organization is closed")
	case models.JoinModeInviteOnly:
		return nil, errors.Forbidden("This organization is invite-only")
	}

	status := models.MembershipPending
	if org.JoinMode == models.JoinModeOpen {
		status = models.MembershipActive
	}

	membership := &models.OrganizationMembership{
		ID:             "mem_" + uuid.NewString(),
		UserID:         user.ID,
		OrganizationID: orgID,
		Role:           roles.Member,
		Status:         status,
		JoinedAt:       time.Now().Unix(),
	}
	if err := s.memberships.Create(membership); err != nil {
		return nil, err
	}
	return membership, nil
}

// ApproveMembership transitions a pending request to active and stamps the
// approver. Requires admin rank.
func (s *Service) ApproveMembership(requester *models.User, orgID, membershipID string) (*models.OrganizationMembership, error) {
	if err := s.RequireRole(requester.ID, orgID, roles.Admin); err != nil {
		return nil, err
	}

	membership, err := s.memberships.GetPending(membershipID, orgID)
	if err != nil {
		return nil, err
	}
	if membership == nil {
		return nil, errors.NotFound("Pending membership not found")
	}

	now := time.Now().Unix()
	if err := s.memberships.Approve(membership.ID, requester.ID, now); err != nil {
		return nil, err
	}
	membership.Status = models.MembershipActive
	membership.ApprovedByID = &requester.ID
	membership.ApprovedAt = &now

	if s.audit != nil {
		s.audit.Log(orgID, requester.ID, "membership.approve", "membership", membership.ID, nil)
	}
	return membership, nil
}

// ChangeRole reassigns a member's role. The owner role is immutable: no
// membership ever leaves it, and only an owner may promote into it.
func (s *Service) ChangeRole(requester *models.User, orgID, targetUserID, newRole string) (*models.OrganizationMembership, error) {
	if err := s.RequireRole(requester.ID, orgID, roles.Admin); err != nil {
		return nil, err
	}
	if !roles.Valid(newRole) {
		return nil, errors.InvalidInput("Unknown role")
	}

	membership, err := s.memberships.GetByUser(targetUserID, orgID)
	if err != nil {
		return nil, err
	}
	if membership == nil {
		return nil, errors.NotFound("Membership not found")
	}

	if membership.Role == roles.Owner {
		return nil, errors.InvalidInput("Cannot change owner role")
	}
	if newRole == roles.Owner {
		if err := s.RequireRole(requester.ID, orgID, roles.Owner); err != nil {
			return nil, errors.Forbidden("Only owners can promote to owner role")
		}
	}

	if err := s.memberships.UpdateRole(membership.ID, newRole); err != nil {
		return nil, err
	}
	membership.Role = newRole

	if s.audit != nil {
		s.audit.Log(orgID, requester.ID, "membership.change_role", "membership", membership.ID, models.JSONMap{"new_role": newRole})
	}
	return membership, nil
}

func validJoinMode(mode string) bool {
	switch mode {
	case models.JoinModeOpen, models.JoinModeApproval, models.JoinModeInviteOnly, models.JoinModeClosed:
		return true
	}
	return false
}
