package handlers

import (
	"net/http"

	"grimoire/internal/engine/board"
	"grimoire/internal/pkg/errors"
)

type BoardHandler struct {
	board *board.Service
}

func NewBoardHandler(boardSvc *board.Service) *BoardHandler {
	return &BoardHandler{board: boardSvc}
}

func (h *BoardHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.board.Get(currentUser(r), param(r, "session_id"))
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *BoardHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req board.ConfigInput
	if !decode(w, r, &req) {
		return
	}

	b, err := h.board.UpdateConfig(currentUser(r), param(r, "session_id"), req)
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *BoardHandler) AddElement(w http.ResponseWriter, r *http.Request) {
	var req board.ElementInput
	if !decode(w, r, &req) {
		return
	}

	element, err := h.board.AddElement(currentUser(r), param(r, "session_id"), req)
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, element)
}

func (h *BoardHandler) UpdateElement(w http.ResponseWriter, r *http.Request) {
	var req board.ElementPatch
	if !decode(w, r, &req) {
		return
	}

	element, err := h.board.UpdateElement(currentUser(r), param(r, "session_id"), param(r, "element_id"), req)
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, element)
}

func (h *BoardHandler) DeleteElement(w http.ResponseWriter, r *http.Request) {
	if err := h.board.DeleteElement(currentUser(r), param(r, "session_id"), param(r, "element_id")); err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Element deleted"})
}
