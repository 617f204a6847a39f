// Package lifecycle starts and stops the background parts of the bot in order.
package lifecycle

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

type Component interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Hooks turns a pair of functions into a Component. Either may be nil.
type Hooks struct {
	OnStart func(ctx context.Context) error
	OnStop  func(ctx context.Context) error
}

func (h Hooks) Start(ctx context.Context) error {
	if h.OnStart == nil {
		return nil
	}
	return h.OnStart(ctx)
}

func (h Hooks) Stop(ctx context.Context) error {
	if h.OnStop == nil {
		return nil
	}
	return h.OnStop(ctx)
}

type entry struct {
	name      string
	component Component
}

// Runtime starts components in registration order and stops them in reverse.
type Runtime struct {
	components []entry
	logger     *log.Entry
}

func NewRuntime() *Runtime {
	return &Runtime{logger: log.WithField("object", "Runtime")}
}

func (r *Runtime) Register(name string, component Component) {
	if component == nil {
		return
	}
	r.components = append(r.components, entry{name: name, component: component})
}

// Start stops whatever already started when a component fails.
func (r *Runtime) Start(ctx context.Context) error {
	started := make([]entry, 0, len(r.components))
	for _, e := range r.components {
		r.logger.WithField("component", e.name).Debug("starting")
		if err := e.component.Start(ctx); err != nil {
			if stopErr := r.stop(ctx, started); stopErr != nil {
				r.logger.WithError(stopErr).Warn("cant roll back started components")
			}
			return fmt.Errorf("start %s: %w", e.name, err)
		}
		started = append(started, e)
	}
	r.logger.WithField("components", len(started)).Info("runtime started")
	return nil
}

func (r *Runtime) Stop(ctx context.Context) error {
	return r.stop(ctx, r.components)
}

func (r *Runtime) stop(ctx context.Context, components []entry) error {
	var stopErr error
	for i := len(components) - 1; i >= 0; i-- {
		e := components[i]
		r.logger.WithField("component", e.name).Debug("stopping")
		if err := e.component.Stop(ctx); err != nil {
			stopErr = errors.Join(stopErr, fmt.Errorf("stop %s: %w", e.name, err))
		}
	}
	return stopErr
}
