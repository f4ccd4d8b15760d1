package indicator

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/rxtech-lab/argo-pipeline/internal/plugin"
	"github.com/rxtech-lab/argo-pipeline/internal/types"
	"github.com/rxtech-lab/argo-pipeline/pkg/errors"
)

// EventName returns the event a kind's indicator plugin publishes under.
func EventName(kind Kind) string {
	return "indicator-" + string(kind)
}

// Value is the payload of an indicator event.
type Value struct {
	Kind  Kind      `yaml:"kind" json:"kind"`
	Value float64   `yaml:"value" json:"value"`
	Price float64   `yaml:"price" json:"price"`
	Date  time.Time `yaml:"date" json:"date"`
}

// PluginConfig configures an indicator plugin.
type PluginConfig struct {
	Period int `yaml:"period" json:"period" validate:"gt=0" jsonschema:"title=Period,description=Number of candles in the smoothing window,minimum=1"`
}

// Plugin wraps one smoother as a pipeline plugin. It publishes a value
// event per candle tick once the smoother has warmed up.
type Plugin struct {
	registry *Registry
	kind     Kind
	config   PluginConfig
	smoother Smoother
}

// NewPlugin creates an indicator plugin for the given kind, resolved
// against the registry at configure time.
func NewPlugin(registry *Registry, kind Kind) *Plugin {
	return &Plugin{registry: registry, kind: kind}
}

// Descriptor returns the descriptor for one kind's indicator plugin. The
// plugin and its event are both named after the kind, so two indicator
// plugins of different kinds never collide.
func Descriptor(registry *Registry, kind Kind) plugin.Descriptor {
	return plugin.Descriptor{
		Name:          EventName(kind),
		EventsEmitted: []string{EventName(kind)},
		Modes:         []types.Mode{types.ModeBacktest, types.ModePaper, types.ModeLive},
		APIVersion:    "^1.0",
		Factory: func() plugin.Plugin {
			return NewPlugin(registry, kind)
		},
		ConfigPrototype: &PluginConfig{},
	}
}

// Configure implements plugin.Plugin.
func (p *Plugin) Configure(config string, _ plugin.Services) error {
	p.config = PluginConfig{Period: 14}

	if config != "" {
		if err := yaml.Unmarshal([]byte(config), &p.config); err != nil {
			return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err,
				"failed to parse %s config", EventName(p.kind))
		}
	}

	if err := validator.New().Struct(&p.config); err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err,
			"invalid %s config", EventName(p.kind))
	}

	smoother, err := p.registry.Create(p.kind, p.config.Period)
	if err != nil {
		return err
	}

	p.smoother = smoother

	return nil
}

// OnTick implements plugin.Plugin.
func (p *Plugin) OnTick(tick types.Tick, emit plugin.EmitFunc) error {
	if tick.Kind == types.TickKindClock {
		return nil
	}

	value := p.smoother.Update(tick.Price())
	if value.IsNone() {
		return nil
	}

	return emit(EventName(p.kind), Value{
		Kind:  p.kind,
		Value: value.Unwrap(),
		Price: tick.Price(),
		Date:  tick.Timestamp,
	})
}

// OnEvent implements plugin.Plugin.
func (p *Plugin) OnEvent(string, any, plugin.EmitFunc) error {
	return nil
}

// Finalize implements plugin.Plugin.
func (p *Plugin) Finalize(plugin.EmitFunc) error {
	return nil
}

var _ plugin.Plugin = (*Plugin)(nil)
