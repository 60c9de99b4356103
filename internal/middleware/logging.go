package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/paytungan/paytungan/internal/metrics"
)

// callerKey holds a *caller that RequireAuth fills in, so an outer logging
// interceptor can report who made the call.
const callerKey contextKey = "caller"

type caller struct {
	uid string
}

func setCaller(ctx context.Context, uid string) {
	if c, ok := ctx.Value(callerKey).(*caller); ok {
		c.uid = uid
	}
}

// LoggingInterceptor returns a Connect interceptor that logs every RPC call
// and, when m is non-nil, records its code and latency. Install it before
// RequireAuth so rejected calls are logged too.
func LoggingInterceptor(m *metrics.Metrics) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			procedure := req.Spec().Procedure
			c := &caller{}
			ctx = context.WithValue(ctx, callerKey, c)

			resp, err := next(ctx, req)

			elapsed := time.Since(start)
			duration := elapsed.Milliseconds()
			userID := c.uid // empty if anonymous or rejected
			code := "ok"
			if err != nil {
				var connectErr *connect.Error
				if errors.As(err, &connectErr) {
					code = connectErr.Code().String()
					slog.Warn("RPC error",
						"procedure", procedure,
						"code", connectErr.Code(),
						"error", connectErr.Message(),
						"uid", userID,
						"duration_ms", duration,
					)
				} else {
					code = connect.CodeUnknown.String()
					slog.Error("RPC error",
						"procedure", procedure,
						"error", err,
						"uid", userID,
						"duration_ms", duration,
					)
				}
			} else {
				slog.Info("RPC ok",
					"procedure", procedure,
					"uid", userID,
					"duration_ms", duration,
				)
			}

			if m != nil {
				m.RPCRequests.WithLabelValues(procedure, code).Inc()
				m.RPCDuration.WithLabelValues(procedure).Observe(elapsed.Seconds())
			}
			return resp, err
		}
	}
}

