// Package plugin defines the plugin contract consumed polymorphically by
// the pipeline orchestrator: static descriptors (emitted/handled events,
// dependencies, injected services, applicable modes) plus the runtime
// interface every plugin implements.
package plugin

import (
	"github.com/rxtech-lab/argo-pipeline/internal/broker"
	"github.com/rxtech-lab/argo-pipeline/internal/logger"
	"github.com/rxtech-lab/argo-pipeline/internal/storage"
	"github.com/rxtech-lab/argo-pipeline/internal/types"
	"github.com/rxtech-lab/argo-pipeline/pkg/errors"
)

// APIVersion is the plugin contract version of this engine build.
// Descriptors declare a semver constraint against it.
const APIVersion = "1.0.0"

// ServiceName identifies an injectable collaborator.
type ServiceName string

const (
	ServiceLogger      ServiceName = "logger"
	ServiceBroker      ServiceName = "broker"
	ServiceCandleStore ServiceName = "candle-store"
)

// Services holds the collaborators a plugin may declare for injection.
type Services struct {
	Logger      *logger.Logger
	Broker      broker.Broker
	CandleStore storage.CandleStore
}

// Has reports whether the named service is available for injection.
func (s Services) Has(name ServiceName) bool {
	switch name {
	case ServiceLogger:
		return s.Logger != nil
	case ServiceBroker:
		return s.Broker != nil
	case ServiceCandleStore:
		return s.CandleStore != nil
	}

	return false
}

// Check verifies that every requested service is available.
func (s Services) Check(requested []ServiceName) error {
	for _, name := range requested {
		if !s.Has(name) {
			return errors.Newf(errors.ErrCodeUnknownService, "service not available for injection: %s", name)
		}
	}

	return nil
}

// EmitFunc publishes an event into the pipeline on behalf of a plugin.
// The orchestrator binds each plugin its own emitter, which enforces the
// plugin's declared emitted events.
type EmitFunc func(name string, payload any) error

// Plugin is the runtime contract every pipeline plugin implements.
// All methods are called on a single goroutine in resolved pipeline order.
type Plugin interface {
	// Configure applies the validated YAML configuration and wires the
	// injected services. Called once before the run starts.
	Configure(config string, services Services) error
	// OnTick handles one unit of pipeline input.
	OnTick(tick types.Tick, emit EmitFunc) error
	// OnEvent handles an event this plugin declared in EventsHandled.
	OnEvent(name string, payload any, emit EmitFunc) error
	// Finalize flushes state at the end of a run. Called exactly once,
	// in pipeline order, on every termination path.
	Finalize(emit EmitFunc) error
}
