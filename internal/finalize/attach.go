package finalize

import (
	"runtime"
	"sync"
)

// Handle refers to one registered release action.
type Handle struct {
	cleanup runtime.Cleanup
	once    *onceAction
}

// Cancel unregisters the action if it has not run. It reports whether the
// action was prevented from ever running.
func (h Handle) Cancel() bool {
	if h.once == nil {
		return false
	}
	h.cleanup.Stop()
	return h.once.disarm()
}

// Attach arranges for action to run on svc once owner is unreachable.
// action must not reference owner, or owner is never collected.
func Attach[T any](svc *Service, owner *T, action func()) Handle {
	once := &onceAction{action: action}
	cleanup := runtime.AddCleanup(owner, func(o *onceAction) {
		svc.Submit(o.run)
	}, once)
	return Handle{cleanup: cleanup, once: once}
}

// onceAction runs its action at most once, however many paths reach it.
type onceAction struct {
	mu     sync.Mutex
	action func()
}

func (o *onceAction) run() {
	o.mu.Lock()
	action := o.action
	o.action = nil
	o.mu.Unlock()

	if action != nil {
		action()
	}
}

func (o *onceAction) disarm() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	armed := o.action != nil
	o.action = nil
	return armed
}
