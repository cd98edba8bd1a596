package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"neo-alexandria/internal/app"
	"neo-alexandria/internal/domain/collection"
	"neo-alexandria/internal/domain/shared"
	"neo-alexandria/internal/errorkit"
	"neo-alexandria/internal/httpapi/dto"
	"neo-alexandria/internal/httpapi/response"
)

// CollectionHandler serves spec §6's saved-collection endpoints.
type CollectionHandler struct {
	c    *app.Container
	resp *response.Handler
}

func NewCollectionHandler(c *app.Container, resp *response.Handler) *CollectionHandler {
	return &CollectionHandler{c: c, resp: resp}
}

func toCollectionDTO(c *collection.Collection) dto.CollectionDTO {
	var parent *string
	if p := c.Parent(); p != nil {
		s := p.String()
		parent = &s
	}
	members := c.Members()
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.String())
	}
	return dto.CollectionDTO{
		ID: c.ID().String(), Name: c.Name(), Description: c.Description(),
		Visibility: string(c.Visibility()), ParentID: parent, Owner: c.Owner(), MemberIDs: ids,
	}
}

// Create handles POST /collections.
func (h *CollectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCollectionRequest
	if err := decode(r, &req); err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	visibility := collection.VisibilityPrivate
	if req.Visibility != "" {
		visibility = collection.Visibility(req.Visibility)
	}
	var parent *shared.ID
	if req.ParentID != "" {
		id, err := parseID(req.ParentID)
		if err != nil {
			writeError(h.resp, w, r, err)
			return
		}
		parent = &id
	}

	c := collection.New(req.Name, req.Description, visibility, parent, defaultOwner, h.c.Clock)
	if err := h.c.CollectionRepo.Save(r.Context(), c); err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, toCollectionDTO(c))
}

// List handles GET /collections.
func (h *CollectionHandler) List(w http.ResponseWriter, r *http.Request) {
	collections, err := h.c.CollectionRepo.ListByOwner(r.Context(), defaultOwner)
	if err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	out := make([]dto.CollectionDTO, 0, len(collections))
	for _, c := range collections {
		out = append(out, toCollectionDTO(c))
	}
	response.JSON(w, http.StatusOK, dto.CollectionsResponse{Collections: out})
}

// Get handles GET /collections/{id}.
func (h *CollectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	c, err := h.c.CollectionRepo.FindByID(r.Context(), id)
	if err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, toCollectionDTO(c))
}

// Delete handles DELETE /collections/{id}.
func (h *CollectionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	if err := h.c.CollectionRepo.Delete(r.Context(), id); err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	response.JSON(w, http.StatusNoContent, nil)
}

// AddMember handles POST /collections/{id}/members: adds a resource and
// recomputes the collection's aggregate embedding from every member's
// current dense vector.
func (h *CollectionHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	var req dto.AddCollectionMemberRequest
	if err := decode(r, &req); err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	memberID, err := parseID(req.ResourceID)
	if err != nil {
		writeError(h.resp, w, r, err)
		return
	}

	c, err := h.c.CollectionRepo.FindByID(r.Context(), id)
	if err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	memberVectors, err := h.collectMemberVectors(r, c, memberID)
	if err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	if err := c.AddMember(memberID, memberVectors, h.c.Clock); err != nil {
		writeError(h.resp, w, r, errorkit.As(err))
		return
	}
	if err := h.c.CollectionRepo.Save(r.Context(), c); err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, toCollectionDTO(c))
}

// RemoveMember handles DELETE /collections/{id}/members/{resourceID}.
func (h *CollectionHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	memberID, err := parseID(chi.URLParam(r, "resourceID"))
	if err != nil {
		writeError(h.resp, w, r, err)
		return
	}

	c, err := h.c.CollectionRepo.FindByID(r.Context(), id)
	if err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	memberVectors, err := h.collectMemberVectors(r, c, "")
	if err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	c.RemoveMember(memberID, memberVectors, h.c.Clock)
	if err := h.c.CollectionRepo.Save(r.Context(), c); err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, toCollectionDTO(c))
}

// collectMemberVectors resolves the dense vector for every current member
// plus an optional about-to-be-added id, as collection.AddMember/
// RemoveMember need for aggregate recomputation.
func (h *CollectionHandler) collectMemberVectors(r *http.Request, c *collection.Collection, extra shared.ID) (map[shared.ID][]float32, error) {
	ids := c.Members()
	if !extra.Empty() {
		ids = append(ids, extra)
	}
	vectors := make(map[shared.ID][]float32, len(ids))
	for _, id := range ids {
		vec, ok, err := h.c.Dense.Get(r.Context(), id)
		if err != nil {
			return nil, err
		}
		if ok {
			vectors[id] = vec
		}
	}
	return vectors, nil
}
