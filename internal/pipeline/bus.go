package pipeline

import (
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-pipeline/internal/logger"
	"github.com/rxtech-lab/argo-pipeline/internal/plugin"
	"github.com/rxtech-lab/argo-pipeline/pkg/errors"
)

// Bus connects the ordered plugins of one run. Subscription lists are
// built once at construction from each plugin's declared handled events;
// there is no runtime string-based dispatch beyond the map lookup.
// Delivery is synchronous and depth-first: events published while handling
// an event are fully delivered before the outer publish returns.
type Bus struct {
	log         *logger.Logger
	order       PipelineContext
	plugins     []plugin.Plugin
	subscribers map[string][]int
}

func newBus(order PipelineContext, plugins []plugin.Plugin, log *logger.Logger) *Bus {
	subscribers := make(map[string][]int)

	for i, d := range order {
		for _, event := range d.EventsHandled {
			subscribers[event] = append(subscribers[event], i)
		}
	}

	return &Bus{
		log:         log,
		order:       order,
		plugins:     plugins,
		subscribers: subscribers,
	}
}

// emitterFor binds an emitter to the plugin at the given pipeline index.
// The emitter enforces the plugin's declared emitted events.
func (b *Bus) emitterFor(index int) plugin.EmitFunc {
	return func(name string, payload any) error {
		if !b.order[index].Emits(name) {
			return errors.Newf(errors.ErrCodeUnknownEvent,
				"plugin %s emitted undeclared event %q", b.order[index].Name, name)
		}

		return b.publish(name, payload)
	}
}

// publish delivers the event to every subscriber in pipeline order.
func (b *Bus) publish(name string, payload any) error {
	for _, idx := range b.subscribers[name] {
		b.log.Debug("Delivering event",
			zap.String("event", name),
			zap.String("plugin", b.order[idx].Name),
		)

		if err := b.plugins[idx].OnEvent(name, payload, b.emitterFor(idx)); err != nil {
			return errors.Wrapf(errors.ErrCodePluginRuntime, err,
				"plugin %s failed handling event %q", b.order[idx].Name, name)
		}
	}

	return nil
}
