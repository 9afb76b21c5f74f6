package geo

import (
	"context"
	"errors"
)

// ErrNoFix is returned by a Locator that has no position to report.
var ErrNoFix = errors.New("position unavailable")

// Locator resolves a one-shot device position.
type Locator interface {
	Locate(ctx context.Context) (Coordinate, error)
}

// LocatorFunc adapts a function to the Locator interface.
type LocatorFunc func(ctx context.Context) (Coordinate, error)

func (f LocatorFunc) Locate(ctx context.Context) (Coordinate, error) {
	return f(ctx)
}

// FixedLocator reports a position supplied up front, such as coordinates a
// client already resolved on its own device.
type FixedLocator struct {
	Position *Coordinate
}

// Fixed returns a locator that always reports c.
func Fixed(c Coordinate) FixedLocator {
	return FixedLocator{Position: &c}
}

func (l FixedLocator) Locate(ctx context.Context) (Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return Coordinate{}, err
	}
	if l.Position == nil {
		return Coordinate{}, ErrNoFix
	}
	if err := l.Position.Validate(); err != nil {
		return Coordinate{}, err
	}
	return *l.Position, nil
}
