package bind

import (
	stderrors "errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/nativebind/descriptor"
	"github.com/wippyai/nativebind/managed"
	"github.com/wippyai/nativebind/registry"
	"github.com/wippyai/nativebind/resource"
)

// DefaultSupportPackage is the managed package holding the callback
// support classes.
const DefaultSupportPackage = "com/wippy/nativebind"

// Reserved member names shared with the managed stubs.
const (
	PointerField = "nativePointer"
	CloseMethod  = "close"
)

// Version is the boundary interface version reported by Load.
type Version int32

// CurrentVersion is the only version this module speaks.
const CurrentVersion Version = 0x00010008

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", int32(v)>>16, int32(v)&0xffff)
}

// Module collects the classes a native library exposes and binds them to
// a managed runtime.
//
// Classes are declared during package initialization through the class
// builders. Prepare resolves every binding and freezes the registry;
// Load does that implicitly and then installs the native methods.
type Module struct {
	registry  *registry.Registry
	resolver  *descriptor.Resolver
	handles   *resource.Table
	store     *handleStore
	callbacks *callbackFactory
	logger    *zap.Logger
	loaded    atomic.Pointer[loadState]

	supportPackage string
	pending        []func() error
	errs           []error
	prepareErr     error
	prepareOnce    sync.Once
	mu             sync.Mutex
}

// Option configures a Module.
type Option func(*Module)

// WithLogger sets the logger used by the module.
func WithLogger(l *zap.Logger) Option {
	return func(m *Module) {
		m.logger = l
	}
}

// WithSupportPackage sets the managed package of the callback support
// classes.
func WithSupportPackage(pkg string) Option {
	return func(m *Module) {
		m.supportPackage = pkg
	}
}

// WithHandleObserver subscribes o to native object lifecycle events.
func WithHandleObserver(o resource.Observer) Option {
	return func(m *Module) {
		m.handles.Subscribe(o)
	}
}

// NewModule creates an empty module.
func NewModule(opts ...Option) *Module {
	m := &Module{
		registry:       registry.New(),
		resolver:       descriptor.NewResolver(),
		handles:        resource.NewTable(),
		supportPackage: DefaultSupportPackage,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.store = newHandleStore(m.handles)
	m.callbacks = newCallbackFactory(m)
	m.resolver.SetCallbacks(m.callbacks)
	m.handles.Subscribe(resource.ObserverFunc(func(e resource.Event) {
		m.log().Debug("native object "+e.Type.String(),
			zap.String("class", e.Class),
			zap.Uint64("handle", uint64(e.Handle)))
	}))
	return m
}

var defaultModule = sync.OnceValue(func() *Module { return NewModule() })

// Default returns the process-wide module used by libraries that declare
// their classes from init functions.
func Default() *Module {
	return defaultModule()
}

func (m *Module) log() *zap.Logger {
	if m.logger != nil {
		return m.logger
	}
	return Logger()
}

// Registry returns the class registry.
func (m *Module) Registry() *registry.Registry { return m.registry }

// Resolver returns the type descriptor resolver.
func (m *Module) Resolver() *descriptor.Resolver { return m.resolver }

// Handles returns the native object table.
func (m *Module) Handles() *resource.Table { return m.handles }

// SupportPackage returns the managed package of the support classes.
func (m *Module) SupportPackage() string { return m.supportPackage }

// fail records a declaration error; Prepare reports it.
func (m *Module) fail(err error) {
	if err == nil {
		return
	}
	m.mu.Lock()
	m.errs = append(m.errs, err)
	m.mu.Unlock()
	m.log().Error("declaration failed", zap.Error(err))
}

// later queues a binding to be completed by Prepare, once every class
// is declared.
func (m *Module) later(step func() error) {
	m.mu.Lock()
	m.pending = append(m.pending, step)
	m.mu.Unlock()
}

// Err returns the declaration errors recorded so far.
func (m *Module) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return stderrors.Join(m.errs...)
}

// Prepare resolves every declared binding and freezes the registry. It
// runs once; later calls return the first result. Any declaration error
// fails it.
func (m *Module) Prepare() error {
	m.prepareOnce.Do(func() {
		// Steps may queue further steps; those run in the next round.
		for {
			m.mu.Lock()
			pending := m.pending
			m.pending = nil
			m.mu.Unlock()
			if len(pending) == 0 {
				break
			}
			for _, step := range pending {
				m.fail(step())
			}
		}
		m.registry.Freeze()
		m.prepareErr = m.Err()
		if m.prepareErr == nil {
			m.log().Debug("module prepared", zap.Int("classes", len(m.registry.Classes())))
		}
	})
	return m.prepareErr
}

// Loaded reports whether the module is bound to a runtime.
func (m *Module) Loaded() bool {
	return m.loaded.Load() != nil
}

type loadState struct {
	rt    managed.Runtime
	bound []managed.Class
	enums []*registry.EnumBinding
}
