package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"neo-alexandria/internal/app"
	"neo-alexandria/internal/domain/annotation"
	"neo-alexandria/internal/httpapi/dto"
	"neo-alexandria/internal/httpapi/response"
)

// defaultOwner is the fixed annotation owner for this single-user,
// self-hosted deployment (spec §1) — there is no multi-tenant auth layer
// to derive an owner identity from (see DESIGN.md).
const defaultOwner = "owner"

// AnnotationHandler serves spec §6's per-resource highlight/note endpoints.
type AnnotationHandler struct {
	c    *app.Container
	resp *response.Handler
}

func NewAnnotationHandler(c *app.Container, resp *response.Handler) *AnnotationHandler {
	return &AnnotationHandler{c: c, resp: resp}
}

func toAnnotationDTO(a *annotation.Annotation) dto.AnnotationDTO {
	return dto.AnnotationDTO{
		ID: a.ID().String(), ResourceID: a.ResourceID().String(),
		StartOffset: a.StartOffset(), EndOffset: a.EndOffset(),
		HighlightedText: a.HighlightedText(), Note: a.Note(), Tags: a.Tags(),
		Color: a.Color(), Shared: a.Shared(),
	}
}

// Create handles POST /resources/{id}/annotations.
func (h *AnnotationHandler) Create(w http.ResponseWriter, r *http.Request) {
	resourceID, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	var req dto.CreateAnnotationRequest
	if err := decode(r, &req); err != nil {
		writeError(h.resp, w, r, err)
		return
	}

	body, err := h.c.Blobs.Get(r.Context(), "resources/"+resourceID.String()+"/archive.txt")
	if err != nil {
		writeError(h.resp, w, r, err)
		return
	}

	a, err := annotation.New(resourceID, string(body), req.StartOffset, req.EndOffset, req.Note, req.Tags, req.Color, defaultOwner, req.Shared, h.c.Clock)
	if err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	if err := h.c.AnnotationRepo.Save(r.Context(), a); err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, toAnnotationDTO(a))
}

// List handles GET /resources/{id}/annotations.
func (h *AnnotationHandler) List(w http.ResponseWriter, r *http.Request) {
	resourceID, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	annotations, err := h.c.AnnotationRepo.ListByResource(r.Context(), resourceID)
	if err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	out := make([]dto.AnnotationDTO, 0, len(annotations))
	for _, a := range annotations {
		out = append(out, toAnnotationDTO(a))
	}
	response.JSON(w, http.StatusOK, dto.AnnotationsResponse{Annotations: out})
}

// Update handles PUT /annotations/{id}: only note/tags/color may change,
// the highlighted span is frozen at creation (spec §5).
func (h *AnnotationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	var req dto.UpdateAnnotationRequest
	if err := decode(r, &req); err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	a, err := h.c.AnnotationRepo.FindByID(r.Context(), id)
	if err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	a.UpdateNote(req.Note, req.Tags, req.Color, h.c.Clock)
	if err := h.c.AnnotationRepo.Save(r.Context(), a); err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, toAnnotationDTO(a))
}

// Delete handles DELETE /annotations/{id}.
func (h *AnnotationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	if err := h.c.AnnotationRepo.Delete(r.Context(), id); err != nil {
		writeError(h.resp, w, r, err)
		return
	}
	response.JSON(w, http.StatusNoContent, nil)
}
