package handlers

import (
	"net/http"

	"grimoire/internal/engine/orgs"
	"grimoire/internal/pkg/errors"
)

type OrgHandler struct {
	orgs *orgs.Service
}

func NewOrgHandler(orgSvc *orgs.Service) *OrgHandler {
	return &OrgHandler{orgs: orgSvc}
}

func (h *OrgHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req orgs.CreateInput
	if !decode(w, r, &req) {
		return
	}

	org, err := h.orgs.Create(currentUser(r), req)
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, org)
}

func (h *OrgHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	list, err := h.orgs.ListMine(currentUser(r))
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *OrgHandler) Get(w http.ResponseWriter, r *http.Request) {
	org, err := h.orgs.Get(currentUser(r), param(r, "org_id"))
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, org)
}

func (h *OrgHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req orgs.UpdateInput
	if !decode(w, r, &req) {
		return
	}

	org, err := h.orgs.Update(currentUser(r), param(r, "org_id"), req)
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, org)
}

func (h *OrgHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.orgs.Delete(currentUser(r), param(r, "org_id")); err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Organization deleted"})
}

type JoinRequest struct {
	Message string `json:"message"`
}

func (h *OrgHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req JoinRequest
	if r.ContentLength > 0 && !decode(w, r, &req) {
		return
	}

	membership, err := h.orgs.Join(currentUser(r), param(r, "org_id"), req.Message)
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, membership)
}

func (h *OrgHandler) ApproveMembership(w http.ResponseWriter, r *http.Request) {
	membership, err := h.orgs.ApproveMembership(currentUser(r), param(r, "org_id"), param(r, "membership_id"))
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, membership)
}

type ChangeRoleRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

func (h *OrgHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	var req ChangeRoleRequest
	if !decode(w, r, &req) {
		return
	}

	membership, err := h.orgs.ChangeRole(currentUser(r), param(r, "org_id"), req.UserID, req.Role)
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, membership)
}
