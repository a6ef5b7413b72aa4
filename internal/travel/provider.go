package travel

import (
	"context"
	"strings"
)

// Provider estimates driving time between two opaque location descriptors.
// ok is false when no estimate is available; implementations never need to
// return errors.
type Provider interface {
	TravelMinutes(ctx context.Context, origin, destination string) (minutes int, ok bool)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, origin, destination string) (int, bool)

func (f ProviderFunc) TravelMinutes(ctx context.Context, origin, destination string) (int, bool) {
	return f(ctx, origin, destination)
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }
