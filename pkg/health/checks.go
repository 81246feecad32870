package health

import (
	"context"
	"fmt"
)

// Pinger is satisfied by the Redis and Postgres clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck reports down when p cannot be reached.
func PingCheck(p Pinger) Check {
	return func(ctx context.Context) ComponentHealth {
		if err := p.Ping(ctx); err != nil {
			return ComponentHealth{Status: StatusDown, Message: err.Error()}
		}
		return ComponentHealth{Status: StatusUp}
	}
}

// OptionalPingCheck is PingCheck for dependencies the service can run
// without: failures degrade instead of taking the service down.
func OptionalPingCheck(p Pinger) Check {
	return func(ctx context.Context) ComponentHealth {
		if err := p.Ping(ctx); err != nil {
			return ComponentHealth{Status: StatusDegraded, Message: err.Error()}
		}
		return ComponentHealth{Status: StatusUp}
	}
}

// DocumentCheck reports whether a document is loaded. Having none is a
// normal state, so it never reports down.
func DocumentCheck(units func() int) Check {
	return func(context.Context) ComponentHealth {
		n := units()
		if n == 0 {
			return ComponentHealth{Status: StatusUp, Message: "no document indexed"}
		}
		return ComponentHealth{Status: StatusUp, Message: fmt.Sprintf("%d units indexed", n)}
	}
}
