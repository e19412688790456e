package handlers

import (
	"strconv"

	"github.com/greenwaste/collection-gateway/internal/model"
	xhttp "github.com/greenwaste/collection-gateway/pkg/http"
)

// Identity headers set by the upstream gateway after authentication. The
// service trusts them as-is; it performs authorization, not authentication.
const (
	HeaderUserID       = "X-User-Id"
	HeaderUserRole     = "X-User-Role"
	HeaderSettlementID = "X-Settlement-Id"
)

// scopeFromRequest builds the caller's access scope from identity headers.
func scopeFromRequest(ctx *xhttp.RequestCtx) (model.AccessScope, error) {
	scope := model.AccessScope{
		Role: model.Role(string(ctx.Request.Header.Peek(HeaderUserRole))),
	}

	if v := string(ctx.Request.Header.Peek(HeaderUserID)); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return scope, model.ErrScopeRequired
		}
		scope.UserID = id
	}

	if v := string(ctx.Request.Header.Peek(HeaderSettlementID)); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return scope, model.ErrScopeRequired
		}
		scope.SettlementID = &id
	}

	if err := scope.Validate(); err != nil {
		return scope, err
	}
	return scope, nil
}

// requireScope rejects the request with 401 when no valid identity is
// attached. Handlers receive the scope and do role checks themselves.
func requireScope(ctx *xhttp.RequestCtx) (model.AccessScope, bool) {
	scope, err := scopeFromRequest(ctx)
	if err != nil {
		writeError(ctx, 401, "missing or invalid identity headers")
		return scope, false
	}
	return scope, true
}

// requireAdmin is requireScope plus an ADMIN role check.
func requireAdmin(ctx *xhttp.RequestCtx) (model.AccessScope, bool) {
	scope, ok := requireScope(ctx)
	if !ok {
		return scope, false
	}
	if scope.Role != model.RoleAdmin {
		writeError(ctx, 403, "administrator role required")
		return scope, false
	}
	return scope, true
}
