package handlers

import (
	"net/http"

	"grimoire/internal/engine/items"
	"grimoire/internal/pkg/errors"
)

type ItemHandler struct {
	items *items.Service
}

func NewItemHandler(itemSvc *items.Service) *ItemHandler {
	return &ItemHandler{items: itemSvc}
}

func (h *ItemHandler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req items.TemplateInput
	if !decode(w, r, &req) {
		return
	}

	template, err := h.items.CreateTemplate(currentUser(r), param(r, "org_id"), req)
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, template)
}

func (h *ItemHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	list, err := h.items.ListTemplates(currentUser(r), param(r, "org_id"))
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req items.ItemInput
	if !decode(w, r, &req) {
		return
	}

	item, err := h.items.CreateItem(currentUser(r), param(r, "session_id"), req)
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	list, err := h.items.ListItems(currentUser(r), param(r, "session_id"))
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *ItemHandler) GiveItem(w http.ResponseWriter, r *http.Request) {
	var req items.GiveInput
	if !decode(w, r, &req) {
		return
	}

	entry, err := h.items.GiveItem(currentUser(r), param(r, "session_id"), req)
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *ItemHandler) ListInventory(w http.ResponseWriter, r *http.Request) {
	list, err := h.items.ListInventory(currentUser(r), param(r, "session_id"), param(r, "character_id"))
	if err != nil {
		errors.Write(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
