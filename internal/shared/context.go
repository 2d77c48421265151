package shared

import "context"

// Identity is the authenticated principal extracted from a verified token.
type Identity struct {
	ID           int64
	Username     string
	Role         string
	IsSuperAdmin bool
	IsActive     bool
	Permissions  map[string]map[string]bool
}

type identityContextKey struct{}

// ContextWithIdentity stores the identity in context.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the identity from context.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityContextKey{}).(*Identity)
	return id
}

// RequestMeta carries request metadata recorded alongside audit entries.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

type requestMetaContextKey struct{}

// ContextWithRequestMeta stores request metadata in context.
func ContextWithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaContextKey{}, meta)
}

// RequestMetaFromContext extracts request metadata from context.
func RequestMetaFromContext(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(requestMetaContextKey{}).(RequestMeta)
	return meta
}
