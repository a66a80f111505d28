package osslerr

import (
	"fmt"
	"sync"

	"github.com/mrz1836/ossl/internal/backend"
	"github.com/mrz1836/ossl/internal/native"
)

// Code is a packed backend error code.
type Code = native.Code

// Logger receives debug lines about queue traffic.
type Logger interface {
	Debug(format string, args ...any)
}

// Observer is told how many records each drain and replay moved.
type Observer interface {
	ObserveDrain(records int)
	ObserveReplay(records int)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}

type nopObserver struct{}

func (nopObserver) ObserveDrain(int)  {}
func (nopObserver) ObserveReplay(int) {}

// Option configures a Binding.
type Option func(*Binding)

// WithLogger sets the logger for queue traffic.
func WithLogger(l Logger) Option {
	return func(b *Binding) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithObserver sets the observer for drain and replay counts.
func WithObserver(o Observer) Option {
	return func(b *Binding) {
		if o != nil {
			b.observer = o
		}
	}
}

// Binding ties the error API to one backend. The pop and push strategies
// are chosen once, from the backend's capabilities, when the binding is
// built.
type Binding struct {
	backend native.Backend
	info    native.Info

	pop  func() native.Entry
	push pusher
	data native.DataSetter

	logger   Logger
	observer Observer
}

// NewBinding builds a binding for a backend. It panics if the backend
// advertises a capability without implementing its interface.
func NewBinding(be native.Backend, opts ...Option) *Binding {
	info := be.Info()
	b := &Binding{
		backend:  be,
		info:     info,
		pop:      selectPopper(be, info.Caps),
		push:     selectPusher(be, info.Caps),
		logger:   nopLogger{},
		observer: nopObserver{},
	}
	if ds, ok := be.(native.DataSetter); ok {
		b.data = ds
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Backend returns the backend the binding talks to.
func (b *Binding) Backend() native.Backend {
	return b.backend
}

// Info returns the backend's identity and capabilities.
func (b *Binding) Info() native.Info {
	return b.info
}

func implement[T any](be native.Backend, capability string) T {
	v, ok := be.(T)
	if !ok {
		panic(fmt.Sprintf("osslerr: backend %T advertises %s but does not implement it", be, capability))
	}
	return v
}

// selectPopper returns the combined accessor when the backend has one.
// Otherwise the pop is synthesized from the line-data pop and a function
// name lookup on the code that pop returned; both act on the same record
// because nothing else can touch the calling thread's queue in between.
func selectPopper(be native.Backend, caps native.Caps) func() native.Entry {
	if caps.GetErrorAll {
		return implement[native.ErrorAllGetter](be, "GetErrorAll").GetErrorAll
	}
	g := implement[native.LegacyGetter](be, "GetErrorLineData")
	return func() native.Entry {
		e := g.GetErrorLineData()
		e.Func = g.FuncErrorString(e.Code)
		return e
	}
}

func selectPusher(be native.Backend, caps native.Caps) pusher {
	if caps.NewErrorAPI {
		return modernPusher{
			backend: be,
			put:     implement[native.ModernPutter](be, "NewErrorAPI"),
		}
	}
	return legacyPusher{
		backend: be,
		put:     implement[native.LegacyPutter](be, "PutError"),
	}
}

//nolint:gochecknoglobals // process-wide default, like the backend's own global state
var (
	defaultMu      sync.RWMutex
	defaultBinding *Binding
)

// Default returns the process-wide binding, creating it over
// backend.Default on first use.
func Default() *Binding {
	defaultMu.RLock()
	b := defaultBinding
	defaultMu.RUnlock()
	if b != nil {
		return b
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultBinding == nil {
		defaultBinding = NewBinding(backend.Default())
	}
	return defaultBinding
}

// Use replaces the process-wide binding.
func Use(b *Binding) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultBinding = b
}
