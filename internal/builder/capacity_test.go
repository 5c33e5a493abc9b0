package builder

import (
	"errors"
	"testing"
	"testing/quick"
)

func TestPolicyNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    Policy
		expected Policy
	}{
		{"zero", Policy{}, DefaultPolicy()},
		{"factor too small", Policy{GrowthFactor: 1.1}, Policy{DefaultMaxLength, 1.5, DefaultMinCapacity}},
		{"factor too large", Policy{GrowthFactor: 3}, Policy{DefaultMaxLength, 2.0, DefaultMinCapacity}},
		{"floor above max", Policy{MaxLength: 8, MinCapacity: 64}, Policy{8, DefaultGrowthFactor, 8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.input.Normalize(); got != tt.expected {
				t.Errorf("Normalize() = %+v, expected %+v", got, tt.expected)
			}
		})
	}
}

func TestGrowOne(t *testing.T) {
	p := DefaultPolicy()
	tests := []struct {
		old      int
		expected int
	}{
		{0, 16},
		{1, 16},
		{15, 22},
		{16, 24},
		{100, 150},
		{DefaultMaxLength - 1, DefaultMaxLength},
	}

	for _, tt := range tests {
		got, err := p.GrowOne(tt.old)
		if err != nil {
			t.Errorf("GrowOne(%d) error: %v", tt.old, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("GrowOne(%d) = %d, expected %d", tt.old, got, tt.expected)
		}
	}

	if _, err := p.GrowOne(DefaultMaxLength); !errors.Is(err, ErrOutOfCapacity) {
		t.Errorf("GrowOne(max) err = %v, expected ErrOutOfCapacity", err)
	}
}

func TestGrowTo(t *testing.T) {
	p := DefaultPolicy()
	tests := []struct {
		old, needed int
		expected    int
	}{
		{0, 3, 16},
		{10, 100, 100},
		{100, 101, 150},
		{0, DefaultMaxLength, DefaultMaxLength},
	}

	for _, tt := range tests {
		got, err := p.GrowTo(tt.old, tt.needed)
		if err != nil {
			t.Errorf("GrowTo(%d, %d) error: %v", tt.old, tt.needed, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("GrowTo(%d, %d) = %d, expected %d", tt.old, tt.needed, got, tt.expected)
		}
	}

	for _, needed := range []int{DefaultMaxLength + 1, -1} {
		if _, err := p.GrowTo(0, needed); !errors.Is(err, ErrOutOfCapacity) {
			t.Errorf("GrowTo(0, %d) err = %v, expected ErrOutOfCapacity", needed, err)
		}
	}
}

func TestGrowthProperties(t *testing.T) {
	p := Policy{MaxLength: 1 << 20}.Normalize()

	growOne := func(raw uint32) bool {
		old := int(raw % uint32(p.MaxLength))
		got, err := p.GrowOne(old)
		return err == nil && got > old && got <= p.MaxLength
	}
	if err := quick.Check(growOne, nil); err != nil {
		t.Errorf("GrowOne: %v", err)
	}

	growTo := func(rawOld, rawNeeded uint32) bool {
		old := int(rawOld % uint32(p.MaxLength))
		needed := int(rawNeeded % uint32(p.MaxLength+1))
		got, err := p.GrowTo(old, needed)
		return err == nil && got >= needed && got >= p.MinCapacity && got <= p.MaxLength
	}
	if err := quick.Check(growTo, nil); err != nil {
		t.Errorf("GrowTo: %v", err)
	}
}

func TestStaticPolicy(t *testing.T) {
	p := Policy{MaxLength: 10, GrowthFactor: 2, MinCapacity: 4}
	if got := StaticPolicy(p).CapacityPolicy(); got != p {
		t.Errorf("CapacityPolicy() = %+v, expected %+v", got, p)
	}
}
