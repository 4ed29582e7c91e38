package processing

import "context"

// DurationProber extracts the duration of an asset. The state machine only
// sees this interface, so a real media inspector can replace the static
// placeholder without touching the machine.
type DurationProber interface {
	Duration(ctx context.Context, assetKey string) (float64, error)
}

// StaticProber reports a fixed duration for every asset. It stands in for a
// real ffprobe-style inspector.
type StaticProber struct {
	Seconds float64
}

// compile-time check: *StaticProber must satisfy DurationProber
var _ DurationProber = (*StaticProber)(nil)

func NewStaticProber() *StaticProber {
	return &StaticProber{Seconds: 120.5}
}

func (p *StaticProber) Duration(ctx context.Context, assetKey string) (float64, error) {
	return p.Seconds, nil
}
