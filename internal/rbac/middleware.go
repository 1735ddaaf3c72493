package rbac

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/panelkit/panelkit/internal/audit"
	"github.com/panelkit/panelkit/internal/auth"
	"github.com/panelkit/panelkit/internal/platform/httpx"
	"github.com/panelkit/panelkit/internal/roles"
	"github.com/panelkit/panelkit/internal/shared"
)

// RoleSource resolves the caller's role.
type RoleSource interface {
	FindRole(ctx context.Context, id int64) (roles.Role, error)
}

// AuditRecorder records authorization denials. Best effort.
type AuditRecorder interface {
	Record(ctx context.Context, e audit.Entry) error
}

// Middleware guards entity-management endpoints with the permission
// evaluator. Each guarded route declares its (module, action) pair at
// registration time.
type Middleware struct {
	roles   RoleSource
	logger  *slog.Logger
	auditor AuditRecorder
	flights *singleflight.Group
}

// NewMiddleware constructs a Middleware. The auditor may be nil.
func NewMiddleware(roleSource RoleSource, logger *slog.Logger, auditor AuditRecorder) Middleware {
	return Middleware{
		roles:   roleSource,
		logger:  logger,
		auditor: auditor,
		flights: new(singleflight.Group),
	}
}

// Guard allows the request through when the caller's role permits the
// action on the module. Superusers bypass role resolution entirely. Any
// ambiguity (missing identity, missing role, store failure) denies.
func (m Middleware) Guard(moduleName string, action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := auth.IdentityFromContext(r.Context())
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "bearer token required")
				return
			}
			if identity.IsSuperuser() {
				next.ServeHTTP(w, r)
				return
			}

			role, err := m.findRole(r.Context(), identity.RoleID)
			if err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					m.deny(r, identity, moduleName, action, "role_not_found")
					httpx.Problem(w, http.StatusForbidden, "Forbidden", "role not found")
					return
				}
				if m.logger != nil {
					m.logger.Error("resolve role", slog.Int64("role_id", identity.RoleID), slog.Any("error", err))
				}
				httpx.RespondError(w, err)
				return
			}

			decision, err := Evaluate(role, moduleName, action)
			if err != nil {
				if m.logger != nil {
					m.logger.Error("evaluate permission", slog.String("module", moduleName), slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			switch decision {
			case DecisionAllow:
				next.ServeHTTP(w, r)
			case DecisionNoEntry:
				m.deny(r, identity, moduleName, action, "permission_not_assigned")
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "access denied")
			case DecisionActionDenied:
				m.deny(r, identity, moduleName, action, "access_denied")
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "access denied")
			}
		})
	}
}

// findRole collapses concurrent lookups of the same role into one store
// fetch. This is request coalescing, not caching; nothing is retained.
func (m Middleware) findRole(ctx context.Context, roleID int64) (roles.Role, error) {
	v, err, _ := m.flights.Do(strconv.FormatInt(roleID, 10), func() (any, error) {
		return m.roles.FindRole(context.WithoutCancel(ctx), roleID)
	})
	if err != nil {
		return roles.Role{}, err
	}
	return v.(roles.Role), nil
}

func (m Middleware) deny(r *http.Request, identity auth.Identity, moduleName string, action Action, reason string) {
	if m.logger != nil {
		m.logger.Warn("authorization denied",
			slog.Int64("user_id", identity.UserID),
			slog.String("module", moduleName),
			slog.String("action", string(action)),
			slog.String("reason", reason),
		)
	}
	if m.auditor == nil {
		return
	}
	err := m.auditor.Record(r.Context(), audit.Entry{
		ActorID:  identity.UserID,
		Action:   "authz.deny",
		Entity:   "endpoint",
		EntityID: r.Method + " " + r.URL.Path,
		Meta: map[string]any{
			"module": moduleName,
			"action": string(action),
			"reason": reason,
		},
	})
	if err != nil && m.logger != nil {
		m.logger.Warn("record denial", slog.Any("error", err))
	}
}
