package builder

import "math"

// Default capacity policy values.
const (
	DefaultMaxLength    = math.MaxInt32 - 8
	DefaultGrowthFactor = 1.5
	DefaultMinCapacity  = 16

	minGrowthFactor = 1.5
	maxGrowthFactor = 2.0
)

// Policy decides how far a store grows when it runs out of room.
// A Policy value is immutable; GrowOne and GrowTo are pure functions of
// their arguments and the policy fields.
type Policy struct {
	// MaxLength is the largest capacity ever handed out.
	MaxLength int
	// GrowthFactor multiplies the old capacity; clamped to [1.5, 2.0].
	GrowthFactor float64
	// MinCapacity is the additive floor applied to small stores.
	MinCapacity int
}

// DefaultPolicy returns the default capacity policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxLength:    DefaultMaxLength,
		GrowthFactor: DefaultGrowthFactor,
		MinCapacity:  DefaultMinCapacity,
	}
}

// Normalize fills zero fields with defaults and clamps the growth factor.
func (p Policy) Normalize() Policy {
	if p.MaxLength <= 0 {
		p.MaxLength = DefaultMaxLength
	}
	if p.GrowthFactor == 0 {
		p.GrowthFactor = DefaultGrowthFactor
	}
	p.GrowthFactor = min(max(p.GrowthFactor, minGrowthFactor), maxGrowthFactor)
	if p.MinCapacity <= 0 {
		p.MinCapacity = DefaultMinCapacity
	}
	if p.MinCapacity > p.MaxLength {
		p.MinCapacity = p.MaxLength
	}
	return p
}

// GrowOne returns the capacity to use when a store of oldCapacity needs
// one more slot.
func (p Policy) GrowOne(oldCapacity int) (int, error) {
	return p.GrowTo(oldCapacity, oldCapacity+1)
}

// GrowTo returns a capacity of at least needed, grown geometrically from
// oldCapacity.
func (p Policy) GrowTo(oldCapacity, needed int) (int, error) {
	p = p.Normalize()
	if needed > p.MaxLength || needed < 0 {
		return 0, &CapacityError{Requested: needed, Max: p.MaxLength}
	}

	grown := int(float64(oldCapacity) * p.GrowthFactor)
	newCapacity := max(grown, p.MinCapacity, needed)
	if newCapacity > p.MaxLength {
		newCapacity = p.MaxLength
	}
	return newCapacity, nil
}

// PolicySource supplies the current policy. Each call returns one
// immutable value; sources may swap policies between calls.
type PolicySource interface {
	CapacityPolicy() Policy
}

// StaticPolicy is a PolicySource that never changes.
type StaticPolicy Policy

// CapacityPolicy implements PolicySource.
func (s StaticPolicy) CapacityPolicy() Policy {
	return Policy(s)
}
