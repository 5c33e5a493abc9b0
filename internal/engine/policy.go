package engine

import (
	"sync/atomic"

	"github.com/dshills/rtcore/internal/builder"
)

// policySource is a builder.PolicySource whose policy can be swapped while
// builds are running. Each growth sees either the old or the new policy.
type policySource struct {
	p atomic.Pointer[builder.Policy]
}

func newPolicySource(p builder.Policy) *policySource {
	s := &policySource{}
	s.store(p)
	return s
}

func (s *policySource) store(p builder.Policy) {
	p = p.Normalize()
	s.p.Store(&p)
}

// CapacityPolicy implements builder.PolicySource.
func (s *policySource) CapacityPolicy() builder.Policy {
	return *s.p.Load()
}
