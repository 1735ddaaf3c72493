package users

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/panelkit/panelkit/internal/platform/httpx"
	"github.com/panelkit/panelkit/internal/rbac"
	"github.com/panelkit/panelkit/internal/shared"
)

const moduleName = "users"

// Handler manages user management endpoints.
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

// MountRoutes registers user management routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.guard.Guard(moduleName, rbac.ActionView)).Get("/", h.list)
	r.With(h.guard.Guard(moduleName, rbac.ActionView)).Get("/{id}", h.get)
	r.With(h.guard.Guard(moduleName, rbac.ActionAdd)).Post("/", h.create)
	r.With(h.guard.Guard(moduleName, rbac.ActionEdit)).Put("/{id}", h.update)
	r.With(h.guard.Guard(moduleName, rbac.ActionDelete)).Delete("/{id}", h.remove)
}

type createUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
	RoleTag  string `json:"role_tag"`
	RoleID   int64  `json:"role_id"`
	IsActive *bool  `json:"is_active"`
}

type updateUserRequest struct {
	Name     string `json:"name" validate:"required"`
	Password string `json:"password"`
	RoleTag  string `json:"role_tag"`
	RoleID   int64  `json:"role_id"`
	IsActive *bool  `json:"is_active"`
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

	result, total, err := h.service.ListUsers(r.Context(), filters)
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if result == nil {
		result = []User{}
	}
	httpx.JSON(w, http.StatusOK, httpx.ListResponse{
		Data:       result,
		Pagination: shared.NewPagination(filters.Page, filters.Limit, total),
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "email, name and password (min 8 chars) are required")
		return
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	created, err := h.service.CreateUser(r.Context(), User{
		Email:    req.Email,
		Name:     req.Name,
		Tag:      req.RoleTag,
		RoleID:   req.RoleID,
		IsActive: isActive,
	}, req.Password)
	if err != nil {
		h.logger.Error("create user", slog.Any("error", err))
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
	var req updateUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "name is required")
		return
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	updated, err := h.service.UpdateUser(r.Context(), id, User{
		Name:     req.Name,
		Tag:      req.RoleTag,
		RoleID:   req.RoleID,
		IsActive: isActive,
	}, req.Password)
	if err != nil {
		h.logger.Error("update user", slog.Any("error", err), slog.Int64("id", id))
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
	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		h.logger.Error("delete user", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid user ID")
		return 0, false
	}
	return id, true
}
