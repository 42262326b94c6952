package trybeauth

import "context"

// RequestInfo describes the caller of an auth operation. The Engine copies it
// onto audit events.
type RequestInfo struct {
	IP        string
	UserAgent string
}

type requestInfoKey struct{}

// WithRequestInfo attaches info to ctx.
func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

// WithClientIP attaches only the caller's IP address to ctx, keeping any user
// agent already present.
func WithClientIP(ctx context.Context, ip string) context.Context {
	info := RequestInfoFromContext(ctx)
	info.IP = ip
	return WithRequestInfo(ctx, info)
}

// RequestInfoFromContext returns the attached RequestInfo, or the zero value.
func RequestInfoFromContext(ctx context.Context) RequestInfo {
	if ctx == nil {
		return RequestInfo{}
	}
	info, _ := ctx.Value(requestInfoKey{}).(RequestInfo)
	return info
}
