package rope

import (
	"github.com/dshills/rtcore/internal/finalize"
	"github.com/dshills/rtcore/internal/logging"
	"github.com/dshills/rtcore/internal/native"
)

// Allocator supplies native buffers to ropes and arranges for their release.
type Allocator struct {
	provider  native.Provider
	finalizer *finalize.Service
	logger    *logging.Logger
}

// NewAllocator creates an allocator. A nil provider selects
// native.DefaultProvider; a nil finalizer runs releases inline on the
// runtime's cleanup goroutine.
func NewAllocator(provider native.Provider, finalizer *finalize.Service, logger *logging.Logger) *Allocator {
	if provider == nil {
		provider = native.DefaultProvider()
	}
	if logger == nil {
		logger = logging.NullLogger
	}
	if finalizer == nil {
		finalizer = finalize.New(finalize.Config{Logger: logger})
	}
	return &Allocator{
		provider:  provider,
		finalizer: finalizer,
		logger:    logger.WithComponent("rope"),
	}
}

// Provider returns the native provider.
func (a *Allocator) Provider() native.Provider {
	return a.provider
}

// autorelease ties one reference on ptr to the lifetime of owner.
func (a *Allocator) autorelease(owner *NativeRope, ptr *native.Pointer) {
	logger := a.logger
	finalize.Attach(a.finalizer, owner, func() {
		if err := ptr.Release(); err != nil {
			logger.Warn("release %s: %v", ptr, err)
		}
	})
}
