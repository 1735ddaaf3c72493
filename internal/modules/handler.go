package modules

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/panelkit/panelkit/internal/platform/httpx"
	"github.com/panelkit/panelkit/internal/rbac"
)

const moduleName = "modules"

// Handler manages module registry endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	guard     rbac.Middleware
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, guard: guard, validator: validator.New()}
}

// MountRoutes registers module registry routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard.Guard(moduleName, rbac.ActionView)).Get("/", h.list)
	r.With(h.guard.Guard(moduleName, rbac.ActionAdd)).Post("/", h.create)
	r.With(h.guard.Guard(moduleName, rbac.ActionEdit)).Put("/{id}", h.update)
	r.With(h.guard.Guard(moduleName, rbac.ActionDelete)).Delete("/{id}", h.remove)
}

type moduleRequest struct {
	Name     string `json:"name" validate:"required"`
	Label    string `json:"label"`
	Icon     string `json:"icon"`
	IsActive *bool  `json:"is_active"`
	Ord      int    `json:"ord"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var (
		result []Module
		err    error
	)
	if r.URL.Query().Get("all") == "1" {
		result, err = h.service.ListAllModules(r.Context())
	} else {
		result, err = h.service.ListActiveModules(r.Context())
	}
	if err != nil {
		h.logger.Error("list modules", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if result == nil {
		result = []Module{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": result})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	created, err := h.service.CreateModule(r.Context(), Module{
		Name:     req.Name,
		Label:    req.Label,
		Icon:     req.Icon,
		IsActive: isActive,
		Ord:      req.Ord,
	})
	if err != nil {
		h.logger.Error("create module", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	updated, err := h.service.UpdateModule(r.Context(), id, Module{
		Name:     req.Name,
		Label:    req.Label,
		Icon:     req.Icon,
		IsActive: isActive,
		Ord:      req.Ord,
	})
	if err != nil {
		h.logger.Error("update module", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteModule(r.Context(), id); err != nil {
		h.logger.Error("delete module", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (moduleRequest, bool) {
	var req moduleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return req, false
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "module name is required")
		return req, false
	}
	return req, true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid module ID")
		return 0, false
	}
	return id, true
}
