package pipeline

import (
	"context"
	stderrors "errors"
	"iter"

	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-pipeline/internal/logger"
	"github.com/rxtech-lab/argo-pipeline/internal/plugin"
	"github.com/rxtech-lab/argo-pipeline/internal/types"
	"github.com/rxtech-lab/argo-pipeline/pkg/errors"
)

// ErrEarlyStop is returned by a plugin to request a clean early stop of
// the run. The orchestrator finalizes the pipeline and reports success.
var ErrEarlyStop = stderrors.New("early stop requested")

// OnTickCallback reports progress after each processed tick.
type OnTickCallback func(processed int)

// Options configure one pipeline run.
type Options struct {
	Mode     types.Mode
	Registry *plugin.Registry
	Services plugin.Services
	// Configs maps plugin name to its YAML configuration. Missing
	// entries configure the plugin with an empty document.
	Configs map[string]string
	Logger   *logger.Logger
}

// Orchestrator composes the resolver, collision validator and event bus,
// and drives the bus across the incoming tick stream. One orchestrator
// serves exactly one run; independent runs build their own.
type Orchestrator struct {
	log      *logger.Logger
	mode     types.Mode
	pipeline PipelineContext
	plugins  []plugin.Plugin
	bus      *Bus
}

// NewOrchestrator builds the pipeline for the requested mode: resolves
// plugin order, validates event collisions, instantiates each plugin with
// its injected services and validated configuration. Any failure is fatal;
// no partial pipelines run.
func NewOrchestrator(opts Options) (*Orchestrator, error) {
	log := opts.Logger
	if log == nil {
		var err error

		log, err = logger.NewLogger()
		if err != nil {
			return nil, err
		}
	}

	if opts.Registry == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "no plugin registry provided")
	}

	active := opts.Registry.ForMode(opts.Mode)
	if len(active) == 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "no plugins active in mode %s", opts.Mode)
	}

	order, err := ResolveOrder(active)
	if err != nil {
		return nil, err
	}

	if err := ValidateEventCollisions(order); err != nil {
		return nil, err
	}

	plugins := make([]plugin.Plugin, len(order))

	for i, d := range order {
		if err := opts.Services.Check(d.Inject); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeUnknownService, err,
				"plugin %s requested unavailable service", d.Name)
		}

		instance := d.Factory()

		if err := instance.Configure(opts.Configs[d.Name], opts.Services); err != nil {
			return nil, errors.Wrapf(errors.ErrCodePluginConfigInvalid, err,
				"plugin %s rejected its configuration", d.Name)
		}

		plugins[i] = instance
	}

	log.Debug("Pipeline constructed",
		zap.String("mode", string(opts.Mode)),
		zap.Strings("order", order.Names()),
	)

	return &Orchestrator{
		log:      log,
		mode:     opts.Mode,
		pipeline: order,
		plugins:  plugins,
		bus:      newBus(order, plugins, log),
	}, nil
}

// Context returns the resolved execution order of this run.
func (o *Orchestrator) Context() PipelineContext {
	return o.pipeline
}

// Run drives the tick stream through the pipeline. Each tick is delivered
// to the plugins in resolved order; events a plugin emits are delivered to
// all their handlers before the next plugin sees the tick, so handling of
// tick N fully completes before tick N+1 begins. Cancellation is observed
// between ticks only. On every termination path all plugins receive
// Finalize in resolved order exactly once.
func (o *Orchestrator) Run(ctx context.Context, source iter.Seq2[types.Tick, error], callback optional.Option[OnTickCallback]) error {
	processed := 0

	var runErr error

loop:
	for tick, err := range source {
		select {
		case <-ctx.Done():
			o.log.Info("Run cancelled", zap.Int("processed", processed))

			runErr = errors.Wrap(errors.ErrCodeRunAborted, "run cancelled", ctx.Err())

			break loop
		default:
		}

		if err != nil {
			runErr = errors.Wrap(errors.ErrCodeRunAborted, "tick source failed", err)

			break loop
		}

		for i := range o.plugins {
			if err := o.plugins[i].OnTick(tick, o.bus.emitterFor(i)); err != nil {
				if stderrors.Is(err, ErrEarlyStop) {
					o.log.Info("Early stop requested",
						zap.String("plugin", o.pipeline[i].Name),
						zap.Int("processed", processed),
					)

					break loop
				}

				runErr = errors.Wrapf(errors.ErrCodePluginRuntime, err,
					"plugin %s failed processing tick", o.pipeline[i].Name)

				break loop
			}
		}

		processed++

		if callback.IsSome() {
			callback.Unwrap()(processed)
		}
	}

	finalizeErr := o.finalize()

	if runErr != nil {
		return runErr
	}

	return finalizeErr
}

// finalize notifies every plugin in resolved order.
func (o *Orchestrator) finalize() error {
	var firstErr error

	for i := range o.plugins {
		if err := o.plugins[i].Finalize(o.bus.emitterFor(i)); err != nil {
			o.log.Error("Plugin finalize failed",
				zap.String("plugin", o.pipeline[i].Name),
				zap.Error(err),
			)

			if firstErr == nil {
				firstErr = errors.Wrapf(errors.ErrCodeFinalizeFailure, err,
					"plugin %s failed to finalize", o.pipeline[i].Name)
			}
		}
	}

	return firstErr
}
