package credauth

import "context"

// requestMeta carries transport-level facts about the caller. The Engine
// copies them into audit events; they never influence control flow.
type requestMeta struct {
	ClientIP  string
	UserAgent string
}

type requestMetaKey struct{}

// WithClientIP attaches the caller's IP address to ctx for the audit trail.
func WithClientIP(ctx context.Context, ip string) context.Context {
	meta := requestMetaFromContext(ctx)
	meta.ClientIP = ip
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// WithUserAgent attaches the caller's user agent string to ctx for the
// audit trail.
func WithUserAgent(ctx context.Context, agent string) context.Context {
	meta := requestMetaFromContext(ctx)
	meta.UserAgent = agent
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

func requestMetaFromContext(ctx context.Context) requestMeta {
	if ctx == nil {
		return requestMeta{}
	}

	meta, _ := ctx.Value(requestMetaKey{}).(requestMeta)
	return meta
}
