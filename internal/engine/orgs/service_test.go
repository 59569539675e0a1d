package orgs

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"grimoire/internal/engine/roles"
	"grimoire/internal/pkg/errors"
	"grimoire/internal/platform/models"
	"grimoire/internal/platform/repositories"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
	CREATE TABLE organizations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		visibility TEXT NOT NULL,
		join_mode TEXT NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE organization_memberships (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		organization_id TEXT NOT NULL,
		role TEXT NOT NULL,
		status TEXT NOT NULL,
		joined_at INTEGER NOT NULL,
		invited_by_id TEXT,
		approved_by_id TEXT,
		approved_at INTEGER
	);`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return db
}

func newTestService(db *sql.DB) *Service {
	return NewService(
		repositories.NewOrganizationRepository(db),
		repositories.NewMembershipRepository(db),
		nil,
	)
}

func testUser(id string) *models.User {
	return &models.User{ID: id, Email: id + "@example.com", GlobalRole: models.GlobalRoleUser, IsActive: true}
}

func TestCreate_GrantsOwnerMembership(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	creator := testUser("usr_creator")

	org, err := svc.Create(creator, CreateInput{Name: "The Round Table", Slug: "Round-Table"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if org.Slug != "round-table" {
		t.Errorf("slug = %q, want normalized round-table", org.Slug)
	}
	if org.JoinMode != models.JoinModeApproval {
		t.Errorf("join mode = %q, want default approval", org.JoinMode)
	}

	m, err := repositories.NewMembershipRepository(db).GetActive(creator.ID, org.ID)
	if err != nil {
		t.Fatalf("get membership: %v", err)
	}
	if m == nil {
		t.Fatal("creator has no membership")
	}
	if m.Role != roles.Owner {
		t.Errorf("creator role = %q, want owner", m.Role)
	}

	if _, err := svc.Create(testUser("usr_other"), CreateInput{Name: "Another Table", Slug: "round-table"}); err == nil {
		t.Error("duplicate slug accepted")
	} else if appErr, ok := err.(*errors.Error); !ok || appErr.Code != errors.ErrCodeConflict {
		t.Errorf("duplicate slug error = %v, want conflict", err)
	}
}

func TestJoin_ApprovalFlow(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	owner := testUser("usr_owner")
	joiner := testUser("usr_joiner")

	org, err := svc.Create(owner, CreateInput{Name: "Approval Guild", Slug: "approval-guild", JoinMode: models.JoinModeApproval})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	m, err := svc.Join(joiner, org.ID, "let me in")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if m.Status != models.MembershipPending {
		t.Fatalf("status = %q, want pending", m.Status)
	}

	// pending members are not members yet
	if err := svc.RequireMember(joiner.ID, org.ID); err == nil {
		t.Error("pending member passed RequireMember")
	}

	// a mere member cannot approve
	if _, err := svc.ApproveMembership(joiner, org.ID, m.ID); err == nil {
		t.Error("non-admin approved a membership")
	}

	approved, err := svc.ApproveMembership(owner, org.ID, m.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != models.MembershipActive {
		t.Errorf("status = %q, want active", approved.Status)
	}
	if approved.ApprovedByID == nil || *approved.ApprovedByID != owner.ID {
		t.Error("approver not stamped")
	}
	if err := svc.RequireMember(joiner.ID, org.ID); err != nil {
		t.Errorf("approved member failed RequireMember: %v", err)
	}

	// re-approving a non-pending membership
	if _, err := svc.ApproveMembership(owner, org.ID, m.ID); err == nil {
		t.Error("approved an already-active membership")
	}
}

func TestJoin_Modes(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	owner := testUser("usr_owner")

	open, _ := svc.Create(owner, CreateInput{Name: "Open Guild", Slug: "open-guild", JoinMode: models.JoinModeOpen})
	closed, _ := svc.Create(owner, CreateInput{Name: "Closed Guild", Slug: "closed-guild", JoinMode: models.JoinModeClosed})
	invite, _ := svc.Create(owner, CreateInput{Name: "Invite Guild", Slug: "invite-guild", JoinMode: models.JoinModeInviteOnly})

	joiner := testUser("usr_joiner")

	m, err := svc.Join(joiner, open.ID, "")
	if err != nil {
		t.Fatalf("join open: %v", err)
	}
	if m.Status != models.MembershipActive {
		t.Errorf("open join status = %q, want active", m.Status)
	}
	if _, err := svc.Join(joiner, open.ID, ""); err == nil {
		t.Error("double join accepted")
	}

	if _, err := svc.Join(joiner, closed.ID, ""); err == nil {
		t.Error("joined a closed organization")
	}
	if _, err := svc.Join(joiner, invite.ID, ""); err == nil {
		t.Error("joined an invite-only organization")
	}
	if _, err := svc.Join(joiner, "org_missing", ""); err == nil {
		t.Error("joined a missing organization")
	}
}

func TestChangeRole_OwnerImmutable(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	owner := testUser("usr_owner")
	member := testUser("usr_member")
	admin := testUser("usr_admin")

	org, err := svc.Create(owner, CreateInput{Name: "Role Guild", Slug: "role-guild", JoinMode: models.JoinModeOpen})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Join(member, org.ID, ""); err != nil {
		t.Fatalf("join member: %v", err)
	}
	if _, err := svc.Join(admin, org.ID, ""); err != nil {
		t.Fatalf("join admin: %v", err)
	}
	if _, err := svc.ChangeRole(owner, org.ID, admin.ID, roles.Admin); err != nil {
		t.Fatalf("promote admin: %v", err)
	}

	// owner role never changes, not even by the owner
	if _, err := svc.ChangeRole(owner, org.ID, owner.ID, roles.Member); err == nil {
		t.Error("owner role was changed")
	} else if appErr, ok := err.(*errors.Error); !ok || appErr.Code != errors.ErrCodeInvalidInput {
		t.Errorf("owner demotion error = %v, want invalid input", err)
	}

	// only owners promote into the owner role
	if _, err := svc.ChangeRole(admin, org.ID, member.ID, roles.Owner); err == nil {
		t.Error("admin promoted to owner")
	}
	if _, err := svc.ChangeRole(owner, org.ID, member.ID, roles.Owner); err != nil {
		t.Errorf("owner promoting to owner: %v", err)
	}

	// admins can run ordinary role changes
	if _, err := svc.ChangeRole(admin, org.ID, admin.ID, roles.MJ); err != nil {
		t.Errorf("admin self-change to mj: %v", err)
	}

	// members cannot
	if _, err := svc.ChangeRole(member, org.ID, admin.ID, roles.Member); err == nil {
		t.Error("member changed a role")
	}

	if _, err := svc.ChangeRole(owner, org.ID, member.ID, "archmage"); err == nil {
		t.Error("unknown role accepted")
	}
}

func TestUpdate(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	owner := testUser("usr_owner")
	member := testUser("usr_member")

	org, err := svc.Create(owner, CreateInput{Name: "Update Guild", Slug: "update-guild", JoinMode: models.JoinModeOpen})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	other, err := svc.Create(owner, CreateInput{Name: "Other Guild", Slug: "other-guild"})
	if err != nil {
		t.Fatalf("create other: %v", err)
	}
	if _, err := svc.Join(member, org.ID, ""); err != nil {
		t.Fatalf("join: %v", err)
	}

	name := "Renamed Guild"
	updated, err := svc.Update(owner, org.ID, UpdateInput{Name: &name})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != name {
		t.Errorf("name = %q, want %q", updated.Name, name)
	}
	if updated.Slug != "update-guild" {
		t.Errorf("slug changed unexpectedly: %q", updated.Slug)
	}

	taken := other.Slug
	if _, err := svc.Update(owner, org.ID, UpdateInput{Slug: &taken}); err == nil {
		t.Error("slug collision accepted")
	}

	if _, err := svc.Update(member, org.ID, UpdateInput{Name: &name}); err == nil {
		t.Error("member updated the organization")
	}
}

func TestDelete_GlobalAdminOnly(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	owner := testUser("usr_owner")

	org, err := svc.Create(owner, CreateInput{Name: "Doomed Guild", Slug: "doomed-guild"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(owner, org.ID); err == nil {
		t.Error("organization owner deleted without global admin role")
	}

	admin := testUser("usr_global")
	admin.GlobalRole = models.GlobalRoleAdmin
	if err := svc.Delete(admin, org.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(admin, org.ID); err == nil {
		t.Error("deleted a missing organization")
	}
}

func TestListMine(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	owner := testUser("usr_owner")
	outsider := testUser("usr_outsider")

	if _, err := svc.Create(owner, CreateInput{Name: "Guild One", Slug: "guild-one"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(owner, CreateInput{Name: "Guild Two", Slug: "guild-two"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	mine, err := svc.ListMine(owner)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("len = %d, want 2", len(mine))
	}

	none, err := svc.ListMine(outsider)
	if err != nil {
		t.Fatalf("list outsider: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("outsider sees %d organizations", len(none))
	}
}
