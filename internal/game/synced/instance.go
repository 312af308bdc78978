package synced

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ErrAlreadyInitialized is returned by Create when the instance already holds
// a registry. Callers treat it as a fatal programming error.
var ErrAlreadyInitialized = errors.New("synced commands instance is already initialized")

func errMissing(field string) error {
	return fmt.Errorf("synced env: %s must not be nil", field)
}

// Instance owns the lifetime of the match's command registry. It is created
// exactly once after the world is loaded and destroyed exactly once on exit.
type Instance struct {
	mu     sync.Mutex
	reg    *Registry
	logger *zap.Logger
}

// NewInstance creates an Instance that holds no registry yet.
//
// Precondition: logger must be non-nil.
func NewInstance(logger *zap.Logger) *Instance {
	if logger == nil {
		panic("synced.NewInstance: logger must not be nil")
	}
	return &Instance{logger: logger}
}

// Create builds the registry and registers the default commands for opts.
//
// Postcondition: Returns ErrAlreadyInitialized without touching the existing
// registry if Create already succeeded and Destroy was not called since.
func (i *Instance) Create(env Env, opts Options) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.reg != nil {
		return ErrAlreadyInitialized
	}
	if err := env.Validate(); err != nil {
		return err
	}
	reg := NewRegistry(env.Logger)
	if err := AddDefaultCommands(reg, env, opts); err != nil {
		return err
	}
	i.reg = reg
	return nil
}

// Destroy releases the registry. Destroying an instance that holds none logs
// a warning and does nothing else; this happens on shutdown after a failed init.
func (i *Instance) Destroy() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.reg == nil {
		i.logger.Warn("synced commands instance was not initialized or is already destroyed")
		return
	}
	i.reg = nil
}

// Registry returns the live registry, or nil before Create and after Destroy.
func (i *Instance) Registry() *Registry {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.reg
}

// Dispatch executes a through the live registry.
//
// Postcondition: Returns false after logging a warning if there is no registry.
func (i *Instance) Dispatch(a Action) bool {
	reg := i.Registry()
	if reg == nil {
		i.logger.Warn("synced command dropped: instance not initialized",
			zap.String("command", a.Command),
		)
		return false
	}
	return reg.Dispatch(a)
}
