package handlers

import (
	"net/http"

	"grimoire/internal/engine/characters"
	"grimoire/internal/pkg/errors"
)

type CharacterHandler struct {
	characters *characters.Service
}

func NewCharacterHandler(charSvc *characters.Service) *CharacterHandler {
	return &CharacterHandler{characters: charSvc}
}

func (h *CharacterHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req characters.CreateInput
	if !decode(w, r, &req) {
		return
	}

	character, err := h.characters.Create(currentUser(r), param(r, "session_id"), req)
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, character)
}

func (h *CharacterHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.characters.List(currentUser(r), param(r, "session_id"))
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *CharacterHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req characters.UpdateInput
	if !decode(w, r, &req) {
		return
	}

	character, err := h.characters.Update(currentUser(r), param(r, "session_id"), param(r, "character_id"), req)
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, character)
}

func (h *CharacterHandler) UpdateAsMJ(w http.ResponseWriter, r *http.Request) {
	var req characters.MJUpdateInput
	if !decode(w, r, &req) {
		return
	}

	character, err := h.characters.UpdateAsMJ(currentUser(r), param(r, "session_id"), param(r, "character_id"), req)
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, character)
}

type GoldRequest struct {
	Amount int `json:"amount"`
}

func (h *CharacterHandler) AdjustGold(w http.ResponseWriter, r *http.Request) {
	var req GoldRequest
	if !decode(w, r, &req) {
		return
	}

	character, err := h.characters.AdjustGold(currentUser(r), param(r, "session_id"), param(r, "character_id"), req.Amount)
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, character)
}
