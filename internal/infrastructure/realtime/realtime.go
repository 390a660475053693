// Package realtime holds the process-wide live-update publisher. It is set
// once during startup and only read afterwards.
package realtime

import (
	"sync"
	"sync/atomic"

	"github.com/taskboard/taskboard-api/internal/core/ports"
)

type holder struct {
	p ports.EventPublisher
}

var (
	once    sync.Once
	current atomic.Pointer[holder]
)

// Init installs p as the live-update publisher. Only the first call has any
// effect; it reports whether this call was the one that installed p.
func Init(p ports.EventPublisher) bool {
	installed := false
	once.Do(func() {
		current.Store(&holder{p: p})
		installed = true
	})
	return installed
}

// Current returns the installed publisher. ok is false before Init.
func Current() (ports.EventPublisher, bool) {
	h := current.Load()
	if h == nil || h.p == nil {
		return nil, false
	}
	return h.p, true
}
