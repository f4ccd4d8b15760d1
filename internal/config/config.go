// Package config defines the engine configuration: run mode, broker,
// trading pairs, optional time window and per-plugin configuration
// blocks. Configs are YAML on disk and validated before a run starts.
package config

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"gopkg.in/yaml.v3"

	"github.com/rxtech-lab/argo-pipeline/internal/types"
	"github.com/rxtech-lab/argo-pipeline/pkg/errors"
)

// MaxPairs is the maximum number of trading pairs per run.
const MaxPairs = 5

// EngineConfig is the top-level configuration of one pipeline run.
type EngineConfig struct {
	Mode           types.Mode `yaml:"mode" json:"mode" validate:"required,oneof=backtest paper live" jsonschema:"title=Mode,description=Run mode selecting which plugins participate"`
	InitialBalance float64    `yaml:"initial_balance" json:"initial_balance" validate:"gt=0" jsonschema:"title=Initial Balance,description=Starting currency balance,minimum=0"`
	Broker         string     `yaml:"broker" json:"broker" validate:"required" jsonschema:"title=Broker,description=Registered broker name"`
	FeePercent     float64    `yaml:"fee_percent" json:"fee_percent" validate:"gte=0" jsonschema:"title=Fee Percent,description=Taker fee in percent"`
	Pairs          []string   `yaml:"pairs" json:"pairs" validate:"required,min=1" jsonschema:"title=Pairs,description=Trading pairs with one separator between base and quote"`
	Strategy       string     `yaml:"strategy" json:"strategy" validate:"required" jsonschema:"title=Strategy,description=Registered strategy name"`
	Indicator      string     `yaml:"indicator" json:"indicator" validate:"required" jsonschema:"title=Indicator,description=Indicator kind feeding the strategy"`
	StartTime      optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional start of the backtest window"`
	EndTime        optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional end of the backtest window"`
	// Plugins holds per-plugin configuration blocks keyed by plugin name,
	// passed through verbatim to each plugin's Configure.
	Plugins map[string]yaml.Node `yaml:"plugins" json:"plugins" jsonschema:"title=Plugins,description=Per-plugin configuration blocks"`
}

// UnmarshalYAML implements custom unmarshaling so the optional window
// bounds can be omitted.
func (c *EngineConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type config struct {
		Mode           types.Mode           `yaml:"mode"`
		InitialBalance float64              `yaml:"initial_balance"`
		Broker         string               `yaml:"broker"`
		FeePercent     float64              `yaml:"fee_percent"`
		Pairs          []string             `yaml:"pairs"`
		Strategy       string               `yaml:"strategy"`
		Indicator      string               `yaml:"indicator"`
		StartTime      *time.Time           `yaml:"start_time"`
		EndTime        *time.Time           `yaml:"end_time"`
		Plugins        map[string]yaml.Node `yaml:"plugins"`
	}

	var parsed config
	if err := unmarshal(&parsed); err != nil {
		return err
	}

	c.Mode = parsed.Mode
	c.InitialBalance = parsed.InitialBalance
	c.Broker = parsed.Broker
	c.FeePercent = parsed.FeePercent
	c.Pairs = parsed.Pairs
	c.Strategy = parsed.Strategy
	c.Indicator = parsed.Indicator
	c.StartTime = optional.FromNillable(parsed.StartTime)
	c.EndTime = optional.FromNillable(parsed.EndTime)
	c.Plugins = parsed.Plugins

	return nil
}

// Parse reads and validates an engine config from YAML.
func Parse(data []byte) (EngineConfig, error) {
	var cfg EngineConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return EngineConfig{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse engine config", err)
	}

	if err := cfg.Validate(); err != nil {
		return EngineConfig{}, err
	}

	return cfg, nil
}

// Validate checks the config against the schema rules and the pair and
// window constraints.
func (c *EngineConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid engine config", err)
	}

	if len(c.Pairs) > MaxPairs {
		return errors.Newf(errors.ErrCodeTooManyPairs, "Maximum %d pairs allowed, found %d", MaxPairs, len(c.Pairs))
	}

	for _, pair := range c.Pairs {
		if err := types.Pair(pair).Validate(); err != nil {
			return err
		}
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() {
		window := types.DateRange{Start: c.StartTime.Unwrap(), End: c.EndTime.Unwrap()}
		if err := window.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// Window returns the configured time window, when both bounds are set.
func (c *EngineConfig) Window() optional.Option[types.DateRange] {
	if c.StartTime.IsNone() || c.EndTime.IsNone() {
		return optional.None[types.DateRange]()
	}

	return optional.Some(types.DateRange{
		Start: c.StartTime.Unwrap(),
		End:   c.EndTime.Unwrap(),
	})
}

// PluginConfigs renders the per-plugin blocks back to YAML strings for
// plugin Configure calls.
func (c *EngineConfig) PluginConfigs() (map[string]string, error) {
	configs := make(map[string]string, len(c.Plugins))

	for name, node := range c.Plugins {
		data, err := yaml.Marshal(&node)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err,
				"failed to render config block for plugin %s", name)
		}

		configs[name] = string(data)
	}

	return configs, nil
}

// GenerateSchema generates the JSON schema of the engine config.
func (c *EngineConfig) GenerateSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}

			if strings.Contains(t.String(), "yaml.Node") {
				return &jsonschema.Schema{Type: "object"}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)
	schema.Title = "pipeline-engine-config"
	schema.Description = "Configuration schema for the pipeline engine"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema
}

// GenerateSchemaJSON renders the engine config schema as indented JSON.
func (c *EngineConfig) GenerateSchemaJSON() (string, error) {
	data, err := json.MarshalIndent(c.GenerateSchema(), "", "  ")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to generate config schema", err)
	}

	return string(data), nil
}
