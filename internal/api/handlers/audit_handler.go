package handlers

import (
	"net/http"
	"strconv"

	"grimoire/internal/engine/orgs"
	"grimoire/internal/engine/roles"
	"grimoire/internal/pkg/errors"
	"grimoire/internal/platform/audit"
)

type AuditHandler struct {
	audit *audit.Logger
	orgs  *orgs.Service
}

func NewAuditHandler(auditLog *audit.Logger, orgSvc *orgs.Service) *AuditHandler {
	return &AuditHandler{audit: auditLog, orgs: orgSvc}
}

func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	orgID := param(r, "org_id")
	if err := h.orgs.RequireRole(currentUser(r).ID, orgID, roles.Admin); err != nil {
		errors.Write(w, err)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.audit.ListByOrganization(orgID, limit)
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
