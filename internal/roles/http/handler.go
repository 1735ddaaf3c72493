package roleshttp

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/panelkit/panelkit/internal/platform/httpx"
	"github.com/panelkit/panelkit/internal/rbac"
	"github.com/panelkit/panelkit/internal/roles"
	"github.com/panelkit/panelkit/internal/shared"
)

const moduleName = "roles"

// Handler manages role management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *roles.Service
	guard     rbac.Middleware
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *roles.Service, guard rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, guard: guard, validator: validator.New()}
}

// MountRoutes registers role routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard.Guard(moduleName, rbac.ActionView)).Get("/", h.list)
	r.With(h.guard.Guard(moduleName, rbac.ActionAdd)).Post("/", h.create)
	r.With(h.guard.Guard(moduleName, rbac.ActionEdit)).Put("/{id}", h.update)
	r.With(h.guard.Guard(moduleName, rbac.ActionDelete)).Delete("/{id}", h.remove)
	r.With(h.guard.Guard(moduleName, rbac.ActionView)).Get("/{id}/permissions", h.getPermissions)
	r.With(h.guard.Guard(moduleName, rbac.ActionEdit)).Put("/{id}/permissions", h.replacePermissions)
}

type createRoleRequest struct {
	Name string `json:"name" validate:"required"`
}

type updateRoleRequest struct {
	Name     *string `json:"name"`
	IsActive *bool   `json:"is_active"`
}

type replacePermissionsRequest struct {
	Permissions []roles.PermissionInput `json:"permissions" validate:"required,dive"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	filters := shared.ListFilters{
		Page:    page,
		Limit:   limit,
		Search:  r.URL.Query().Get("search"),
		SortBy:  r.URL.Query().Get("sortBy"),
		SortDir: r.URL.Query().Get("order"),
	}.Clamp()

	result, total, err := h.service.ListRoles(r.Context(), filters)
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if result == nil {
		result = []roles.Role{}
	}
	httpx.JSON(w, http.StatusOK, httpx.ListResponse{
		Data:       result,
		Pagination: shared.NewPagination(filters.Page, filters.Limit, total),
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if !h.decode(w, r, &req) {
		return
	}
	role, err := h.service.CreateRole(r.Context(), req.Name)
	if err != nil {
		h.logger.Error("create role", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, role)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req updateRoleRequest
	if !h.decode(w, r, &req) {
		return
	}
	role, err := h.service.UpdateRoleMeta(r.Context(), id, req.Name, req.IsActive)
	if err != nil {
		h.logger.Error("update role", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteRole(r.Context(), id); err != nil {
		h.logger.Error("delete role", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) replacePermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req replacePermissionsRequest
	if !h.decode(w, r, &req) {
		return
	}
	role, err := h.service.ReplacePermissions(r.Context(), id, req.Permissions)
	if err != nil {
		h.logger.Error("replace permissions", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, role)
}

func (h *Handler) getPermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	name, permissions, err := h.service.GetPermissions(r.Context(), id)
	if err != nil {
		h.logger.Error("get permissions", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	if permissions == nil {
		permissions = []roles.ResolvedPermission{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"name":        name,
		"permissions": permissions,
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return false
	}
	if err := h.validator.Struct(target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "missing required fields")
		return false
	}
	return true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid role ID")
		return 0, false
	}
	return id, true
}
