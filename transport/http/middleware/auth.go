package middleware

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"tourbook/config"
	"tourbook/infras/jwt"
	"tourbook/infras/otel"
	"tourbook/permissions"
	"tourbook/shared/constant"
	"tourbook/shared/failure"
	"tourbook/transport/http/response"

	"github.com/go-chi/chi/v5"
)

type trustedCallerKey struct{}

type Auth interface {
	Auth(http.Handler) http.Handler
	APIKey(http.Handler) http.Handler
}

type Role interface {
	RBAC(http.Handler) http.Handler
}

type AuthRole interface {
	Auth
	Role
}

type authRoleImpl struct {
	jwtService jwt.JWT
	otel       otel.Otel
	table      *permissions.Table
	cfg        *config.Config
}

func NewAuthRoleMiddleware(jwtService jwt.JWT, otel otel.Otel, table *permissions.Table, cfg *config.Config) AuthRole {
	return &authRoleImpl{
		jwtService: jwtService,
		otel:       otel,
		table:      table,
		cfg:        cfg,
	}
}

func trusted(ctx context.Context) bool {
	ok, _ := ctx.Value(trustedCallerKey{}).(bool)

	return ok
}

// rule resolves the permission rule of the route the request will hit.
// Requests that match no route have no rule and fall through to a 404.
func (m *authRoleImpl) rule(r *http.Request) (permissions.Rule, bool) {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil || rctx.Routes == nil {
		return permissions.Rule{}, false
	}

	pattern := rctx.Routes.Find(chi.NewRouteContext(), r.Method, r.URL.Path)
	if pattern == "" {
		return permissions.Rule{}, false
	}

	return m.table.Lookup(r.Method, pattern)
}

func reject(w http.ResponseWriter, scope otel.Scope, err error) {
	scope.TraceError(err)
	response.WithError(w, err)
}

func tokenFailure(err error) error {
	switch {
	case errors.Is(err, jwt.ErrExpiredToken):
		return failure.Unauthorized("Token has expired")
	case errors.Is(err, jwt.ErrInvalidClaim):
		return failure.Unauthorized("Invalid token claims")
	default:
		return failure.Unauthorized("Invalid token")
	}
}

// Auth validates the bearer access token and stores the caller identity in
// the request context. Public and unknown routes pass through.
func (m *authRoleImpl) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rule, found := m.rule(r)
		if trusted(r.Context()) || !found || rule.Skip {
			next.ServeHTTP(w, r)

			return
		}

		ctx, scope := m.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, "middleware.Auth")
		defer scope.End()

		scope.SetAttributes(map[string]any{
			"http.route":  rule.Path,
			"http.method": r.Method,
		})

		raw, err := jwt.ExtractTokenFromHeader(r.Header.Get(constant.RequestHeaderAuthorization))
		if err != nil {
			reject(w, scope, failure.Unauthorized(err.Error()))

			return
		}

		claims, err := m.jwtService.ValidateToken(raw, jwt.AccessToken)
		if err != nil {
			reject(w, scope, tokenFailure(err))

			return
		}

		scope.SetAttribute("user.id", claims.UserID)

		ctx = context.WithValue(ctx, constant.ContextKeyUserID, claims.UserID)
		ctx = context.WithValue(ctx, constant.ContextKeyUserEmail, claims.Email)
		ctx = context.WithValue(ctx, constant.ContextKeyUserRole, claims.Role)
		ctx = context.WithValue(ctx, constant.ContextKeyTokenID, claims.TokenID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RBAC is a coarse gate on the role carried by the token. Services check the
// stored role again.
func (m *authRoleImpl) RBAC(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rule, found := m.rule(r)
		if trusted(r.Context()) || m.table == nil || m.table.Disabled || !found || rule.Skip {
			next.ServeHTTP(w, r)

			return
		}

		role, _ := r.Context().Value(constant.ContextKeyUserRole).(string)
		if rule.Allows(role) {
			next.ServeHTTP(w, r)

			return
		}

		_, scope := m.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, "middleware.RBAC")
		defer scope.End()

		scope.SetAttributes(map[string]any{
			"user.role":     role,
			"allowed_roles": rule.Roles,
		})
		reject(w, scope, failure.ForbiddenError)
	})
}

// APIKey marks callers presenting the configured key as trusted so the token
// checks are skipped. A wrong key is rejected outright.
func (m *authRoleImpl) APIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(constant.RequestHeaderAPIKey)
		if key == "" {
			next.ServeHTTP(w, r)

			return
		}

		ctx, scope := m.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, "middleware.APIKey")
		defer scope.End()

		if m.cfg.App.APIKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(m.cfg.App.APIKey)) != 1 {
			reject(w, scope, failure.ForbiddenError)

			return
		}

		scope.SetAttribute("http.source", "internal")

		next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, trustedCallerKey{}, true)))
	})
}
