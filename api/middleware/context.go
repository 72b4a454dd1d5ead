package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/solarpo-backend/pkg/logger"
)

// OperatorHeader names the person driving an admin request. The admin API sits
// behind the internal network and trusts it as given.
const OperatorHeader = "X-Operator"

const maxOperatorLen = 120

type contextKey string

const ctxOperator contextKey = "operator"

// OperatorFromContext returns the operator recorded for the request, if any.
func OperatorFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxOperator).(string); ok {
		return v
	}
	return ""
}

// WithOperator injects the operator name into the context.
func WithOperator(ctx context.Context, operator string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxOperator, operator)
}

// Operator copies the operator header into the request context and log fields.
func Operator(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			name := strings.TrimSpace(r.Header.Get(OperatorHeader))
			if len(name) > maxOperatorLen {
				name = name[:maxOperatorLen]
			}
			if name == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := WithOperator(r.Context(), name)
			if logg != nil {
				ctx = logg.WithField(ctx, "operator", name)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
