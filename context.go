package authgate

import "context"

type contextKey int

const clientIPKey contextKey = iota

// WithClientIP attaches the caller's IP address to ctx so it appears in
// audit events emitted for this request.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	ip, _ := ctx.Value(clientIPKey).(string)
	return ip
}
