package quote

import (
	"context"

	"github.com/sony/gobreaker/v2"

	quoteDI "github.com/fd1az/trading-sdk/business/quote/di"
	"github.com/fd1az/trading-sdk/internal/di"
	"github.com/fd1az/trading-sdk/internal/health"
	"github.com/fd1az/trading-sdk/internal/wsconn"
)

// HealthChecks reports the REST circuit breaker and, when streaming, the
// feed connection. A reconnecting feed is degraded, not down: reads fall
// back to REST.
func HealthChecks(sr di.ServiceRegistry) map[string]health.CheckFunc {
	client := quoteDI.GetMarketClient(sr)
	checks := map[string]health.CheckFunc{
		"api_breaker": func(context.Context) (bool, string) {
			st := client.BreakerState()
			return st != gobreaker.StateOpen, st.String()
		},
	}

	if store := quoteDI.GetStore(sr); store != nil {
		checks["stream"] = func(context.Context) (bool, string) {
			st := store.State()
			return st == wsconn.StateConnected || st == wsconn.StateReconnecting, string(st)
		}
	}
	return checks
}
