package health

import "context"

// Pinger is implemented by stores that can answer a cheap liveness probe.
// A nil error means the backend accepted the round trip.
type Pinger interface {
	HealthPing(ctx context.Context) error
}
