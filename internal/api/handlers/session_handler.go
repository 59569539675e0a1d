package handlers

import (
	"net/http"

	"grimoire/internal/engine/sessions"
	"grimoire/internal/pkg/errors"
)

type SessionHandler struct {
	sessions *sessions.Service
}

func NewSessionHandler(sessionSvc *sessions.Service) *SessionHandler {
	return &SessionHandler{sessions: sessionSvc}
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req sessions.CreateInput
	if !decode(w, r, &req) {
		return
	}

	session, err := h.sessions.Create(currentUser(r), param(r, "org_id"), req)
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.sessions.List(currentUser(r), param(r, "org_id"))
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.GetForUser(currentUser(r), param(r, "session_id"))
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *SessionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req sessions.UpdateInput
	if !decode(w, r, &req) {
		return
	}

	session, err := h.sessions.Update(currentUser(r), param(r, "session_id"), req)
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(currentUser(r), param(r, "session_id")); err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Session deleted"})
}

func (h *SessionHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req JoinRequest
	if r.ContentLength > 0 && !decode(w, r, &req) {
		return
	}

	membership, err := h.sessions.Join(currentUser(r), param(r, "session_id"), req.Message)
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, membership)
}

func (h *SessionHandler) ApprovePlayer(w http.ResponseWriter, r *http.Request) {
	membership, err := h.sessions.ApprovePlayer(currentUser(r), param(r, "session_id"), param(r, "membership_id"))
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, membership)
}

func (h *SessionHandler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	list, err := h.sessions.ListPlayers(currentUser(r), param(r, "session_id"))
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
