package content

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/GoCodeAlone/folio"
	"github.com/GoCodeAlone/folio/internal/httpx"
	"github.com/GoCodeAlone/folio/modules/auth"
)

// Handler serves the sections and projects REST API.
type Handler struct {
	service      *Service
	logger       folio.Logger
	maxBodyBytes int64
}

func NewHandler(service *Service, logger folio.Logger, maxBodyBytes int64) *Handler {
	return &Handler{service: service, logger: logger, maxBodyBytes: maxBodyBytes}
}

// RegisterRoutes mounts the API. Writes require a signed-in user.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/health", h.health)

	r.Route("/api/sections", func(r chi.Router) {
		r.Get("/", h.listSections)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireUser)
			r.Post("/", h.createSection)
			r.Patch("/{id}", h.updateSection)
			r.Delete("/{id}", h.deleteSection)
		})
	})

	r.Route("/api/projects", func(r chi.Router) {
		r.Get("/", h.listProjects)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireUser)
			r.Post("/", h.createProject)
			r.Patch("/{id}", h.updateProject)
			r.Delete("/{id}", h.deleteProject)
		})
	})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.service.Store().Ping(ctx); err != nil {
		h.logger.Warn("Health check failed", "error", err)
		httpx.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) listSections(w http.ResponseWriter, r *http.Request) {
	_, signedIn := auth.UserFromContext(r.Context())
	sections, err := h.service.Sections(r.Context(), signedIn)
	if err != nil {
		h.internalError(w, "list sections", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sections)
}

func (h *Handler) createSection(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	sec, err := h.service.CreateSection(r.Context(), body)
	if err != nil {
		h.writeError(w, "create section", err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, sec)
}

func (h *Handler) updateSection(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	sec, err := h.service.UpdateSection(r.Context(), id, body)
	if err != nil {
		h.writeError(w, "update section", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sec)
}

func (h *Handler) deleteSection(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteSection(r.Context(), id); err != nil {
		h.writeError(w, "delete section", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.service.Projects(r.Context())
	if err != nil {
		h.internalError(w, "list projects", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, projects)
}

func (h *Handler) createProject(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	p, err := h.service.CreateProject(r.Context(), body)
	if err != nil {
		h.writeError(w, "create project", err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) updateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	p, err := h.service.UpdateProject(r.Context(), id, body)
	if err != nil {
		h.writeError(w, "update project", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) deleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteProject(r.Context(), id); err != nil {
		h.writeError(w, "delete project", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeBadRequest, "id must be an integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := httpx.ReadBody(w, r, h.maxBodyBytes)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeBadRequest, "could not read request body")
		return nil, false
	}
	return body, true
}

func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		if fields := FieldErrors(err); len(fields) > 0 {
			httpx.WriteErrorDetails(w, http.StatusBadRequest, httpx.CodeBadRequest, err.Error(), fields)
			return
		}
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, httpx.CodeNotFound, err.Error())
	default:
		h.internalError(w, op, err)
	}
}

func (h *Handler) internalError(w http.ResponseWriter, op string, err error) {
	h.logger.Error("Content request failed", "op", op, "error", err)
	httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeInternal, "internal error")
}
