package usecase

import "context"

type clientIPKey struct{}

// WithClientIP attaches the caller's address so emitted events can carry it.
func WithClientIP(ctx context.Context, ip string) context.Context {
	if ip == "" {
		return ctx
	}
	return context.WithValue(ctx, clientIPKey{}, ip)
}

func clientIPFromContext(ctx context.Context) *string {
	ip, ok := ctx.Value(clientIPKey{}).(string)
	if !ok || ip == "" {
		return nil
	}
	return &ip
}
