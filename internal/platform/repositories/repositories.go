package repositories

import (
	"database/sql"
	"time"

	"grimoire/internal/platform/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(user *models.User) error {
	_, err := r.db.Exec(`
		INSERT INTO users (id, email, password_hash, global_role, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, user.ID, user.Email, user.PasswordHash, user.GlobalRole, user.IsActive, user.CreatedAt)
	return err
}

func (r *UserRepository) GetByID(id string) (*models.User, error) {
	return r.scanOne(r.db.QueryRow(`
		SELECT id, email, password_hash, global_role, is_active, created_at
		FROM users WHERE id = ?
	`, id))
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	return r.scanOne(r.db.QueryRow(`
		SELECT id, email, password_hash, global_role, is_active, created_at
		FROM users WHERE email = ?
	`, email))
}

func (r *UserRepository) UpdateGlobalRole(id, role string) error {
	_, err := r.db.Exec(`UPDATE users SET global_role = ? WHERE id = ?`, role, id)
	return err
}

func (r *UserRepository) CountByGlobalRole(role string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM users WHERE global_role = ?`, role).Scan(&count)
	return count, err
}

func (r *UserRepository) scanOne(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.GlobalRole, &user.IsActive, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

type OrganizationRepository struct {
	db *sql.DB
}

func NewOrganizationRepository(db *sql.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

func (r *OrganizationRepository) BeginTx() (*sql.Tx, error) {
	return r.db.Begin()
}

func (r *OrganizationRepository) CreateTx(tx *sql.Tx, org *models.Organization) error {
	_, err := tx.Exec(`
		INSERT INTO organizations (id, name, slug, description, visibility, join_mode, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, org.ID, org.Name, org.Slug, org.Description, org.Visibility, org.JoinMode, org.IsActive, org.CreatedAt, org.UpdatedAt)
	return err
}

func (r *OrganizationRepository) GetByID(id string) (*models.Organization, error) {
	return scanOrg(r.db.QueryRow(`
		SELECT id, name, slug, description, visibility, join_mode, is_active, created_at, updated_at
		FROM organizations WHERE id = ?
	`, id))
}

func (r *OrganizationRepository) GetBySlug(slug string) (*models.Organization, error) {
	return scanOrg(r.db.QueryRow(`
		SELECT id, name, slug, description, visibility, join_mode, is_active, created_at, updated_at
		FROM organizations WHERE slug = ?
	`, slug))
}

func (r *OrganizationRepository) Update(org *models.Organization) error {
	_, err := r.db.Exec(`
		UPDATE organizations SET name = ?, slug = ?, description = ?, visibility = ?, join_mode = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`, org.Name, org.Slug, org.Description, org.Visibility, org.JoinMode, org.IsActive, time.Now().Unix(), org.ID)
	return err
}

// Delete removes the organization row; memberships, sessions and everything
// below them go with it through the schema's cascade rules.
func (r *OrganizationRepository) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM organizations WHERE id = ?`, id)
	return err
}

func (r *OrganizationRepository) ListByMember(userID string) ([]*models.Organization, error) {
	rows, err := r.db.Query(`
		SELECT o.id, o.name, o.slug, o.description, o.visibility, o.join_mode, o.is_active, o.created_at, o.updated_at
		FROM organizations o
		JOIN organization_memberships m ON m.organization_id = o.id
		WHERE m.user_id = ? AND m.status = ?
		ORDER BY o.created_at DESC
	`, userID, models.MembershipActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orgs []*models.Organization
	for rows.Next() {
		org := &models.Organization{}
		if err := rows.Scan(&org.ID, &org.Name, &org.Slug, &org.Description, &org.Visibility, &org.JoinMode, &org.IsActive, &org.CreatedAt, &org.UpdatedAt); err != nil {
			return nil, err
		}
		orgs = append(orgs, org)
	}
	return orgs, rows.Err()
}

func scanOrg(row *sql.Row) (*models.Organization, error) {
	org := &models.Organization{}
	err := row.Scan(&org.ID, &org.Name, &org.Slug, &org.Description, &org.Visibility, &org.JoinMode, &org.IsActive, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return org, nil
}

type MembershipRepository struct {
	db *sql.DB
}

func NewMembershipRepository(db *sql.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

const membershipColumns = `id, user_id, organization_id, role, status, joined_at, invited_by_id, approved_by_id, approved_at`

func (r *MembershipRepository) Create(m *models.OrganizationMembership) error {
	_, err := r.db.Exec(`
		INSERT INTO organization_memberships (`+membershipColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.UserID, m.OrganizationID, m.Role, m.Status, m.JoinedAt, m.InvitedByID, m.ApprovedByID, m.ApprovedAt)
	return err
}

func (r *MembershipRepository) CreateTx(tx *sql.Tx, m *models.OrganizationMembership) error {
	_, err := tx.Exec(`
		INSERT INTO organization_memberships (`+membershipColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.UserID, m.OrganizationID, m.Role, m.Status, m.JoinedAt, m.InvitedByID, m.ApprovedByID, m.ApprovedAt)
	return err
}

// GetActive returns the user's active membership in the organization, or nil.
func (r *MembershipRepository) GetActive(userID, orgID string) (*models.OrganizationMembership, error) {
	return scanMembership(r.db.QueryRow(`
		SELECT `+membershipColumns+` FROM organization_memberships
		WHERE user_id = ? AND organization_id = ? AND status = ?
	`, userID, orgID, models.MembershipActive))
}

// GetActiveOrPending finds a non-terminal membership for the pair. At most
// one may exist at a time.
func (r *MembershipRepository) GetActiveOrPending(userID, orgID string) (*models.OrganizationMembership, error) {
	return scanMembership(r.db.QueryRow(`
		SELECT `+membershipColumns+` FROM organization_memberships
		WHERE user_id = ? AND organization_id = ? AND status IN (?, ?)
	`, userID, orgID, models.MembershipActive, models.MembershipPending))
}

func (r *MembershipRepository) GetByUser(userID, orgID string) (*models.OrganizationMembership, error) {
	return scanMembership(r.db.QueryRow(`
		SELECT `+membershipColumns+` FROM organization_memberships
		WHERE user_id = ? AND organization_id = ? AND status NOT IN (?, ?)
	`, userID, orgID, models.MembershipBanned, models.MembershipSuspended))
}

func (r *MembershipRepository) GetPending(id, orgID string) (*models.OrganizationMembership, error) {
	return scanMembership(r.db.QueryRow(`
		SELECT `+membershipColumns+` FROM organization_memberships
		WHERE id = ? AND organization_id = ? AND status = ?
	`, id, orgID, models.MembershipPending))
}

// Approve flips a membership to active and stamps the approver in one
// statement so the transition and the stamp cannot come apart.
func (r *MembershipRepository) Approve(id, approvedBy string, approvedAt int64) error {
	_, err := r.db.Exec(`
		UPDATE organization_memberships
		SET status = ?, approved_by_id = ?, approved_at = ?
		WHERE id = ?
	`, models.MembershipActive, approvedBy, approvedAt, id)
	return err
}

func (r *MembershipRepository) UpdateRole(id, role string) error {
	_, err := r.db.Exec(`UPDATE organization_memberships SET role = ? WHERE id = ?`, role, id)
	return err
}

func scanMembership(row *sql.Row) (*models.OrganizationMembership, error) {
	m := &models.OrganizationMembership{}
	err := row.Scan(&m.ID, &m.UserID, &m.OrganizationID, &m.Role, &m.Status, &m.JoinedAt, &m.InvitedByID, &m.ApprovedByID, &m.ApprovedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return m, nil
}
