package authctx

import "context"

type contextKey string

const principalContextKey contextKey = "principal"

// Roles carried in session tokens.
const (
	RoleTenantAdmin      = "tenant_admin"
	RolePlatformOperator = "platform_operator"
)

// Principal is the authenticated caller. RestaurantID is set only for
// tenant admins.
type Principal struct {
	Role         string
	RestaurantID string
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

func FromContext(ctx context.Context) *Principal {
	val, ok := ctx.Value(principalContextKey).(Principal)
	if !ok {
		return nil
	}
	return &val
}
