package review

import "context"

// Tee relays each decision to Primary and then to every mirror. Only the
// primary's result is reported; mirrors log their own failures.
type Tee struct {
	Primary Relay
	Mirrors []Relay
}

func (t Tee) Relay(ctx context.Context, d Decision) bool {
	ok := t.Primary.Relay(ctx, d)
	for _, m := range t.Mirrors {
		m.Relay(ctx, d)
	}
	return ok
}

// RelayFunc adapts a function to the Relay interface.
type RelayFunc func(ctx context.Context, d Decision) bool

func (f RelayFunc) Relay(ctx context.Context, d Decision) bool {
	return f(ctx, d)
}
