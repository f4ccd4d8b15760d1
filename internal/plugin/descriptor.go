package plugin

import (
	"encoding/json"
	"slices"

	"github.com/Masterminds/semver/v3"
	"github.com/invopop/jsonschema"

	"github.com/rxtech-lab/argo-pipeline/internal/types"
	"github.com/rxtech-lab/argo-pipeline/pkg/errors"
)

// Factory creates a fresh plugin instance for one pipeline run.
type Factory func() Plugin

// Descriptor is the static metadata of one plugin: its identity, event
// contract, dependencies, injected services and applicable modes.
type Descriptor struct {
	Name          string
	EventsEmitted []string
	EventsHandled []string
	Dependencies  []string
	Inject        []ServiceName
	Modes         []types.Mode
	// APIVersion is a semver constraint on the engine's plugin API,
	// e.g. "^1.0". Empty accepts any version.
	APIVersion string
	Factory    Factory
	// ConfigPrototype is a zero value of the plugin's configuration
	// struct, used for JSON schema generation. Nil when the plugin takes
	// no configuration.
	ConfigPrototype any
}

// Validate checks the descriptor's internal consistency.
func (d Descriptor) Validate() error {
	if d.Name == "" {
		return errors.New(errors.ErrCodeInvalidConfiguration, "plugin descriptor must have a name")
	}

	if d.Factory == nil {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "plugin %s has no factory", d.Name)
	}

	if len(d.Modes) == 0 {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "plugin %s declares no modes", d.Name)
	}

	if slices.Contains(d.Dependencies, d.Name) {
		return errors.Newf(errors.ErrCodeInvalidConfiguration, "plugin %s depends on itself", d.Name)
	}

	return nil
}

// ActiveIn reports whether the plugin participates in the given mode.
func (d Descriptor) ActiveIn(mode types.Mode) bool {
	return slices.Contains(d.Modes, mode)
}

// Emits reports whether the plugin declared the event as emitted.
func (d Descriptor) Emits(event string) bool {
	return slices.Contains(d.EventsEmitted, event)
}

// Handles reports whether the plugin declared the event as handled.
func (d Descriptor) Handles(event string) bool {
	return slices.Contains(d.EventsHandled, event)
}

// CheckAPIVersion validates the descriptor's semver constraint against the
// engine's plugin API version.
func (d Descriptor) CheckAPIVersion(engineVersion string) error {
	if d.APIVersion == "" {
		return nil
	}

	constraint, err := semver.NewConstraint(d.APIVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeVersionMismatch, err,
			"plugin %s declares an invalid API version constraint %q", d.Name, d.APIVersion)
	}

	version, err := semver.NewVersion(engineVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeVersionMismatch, err,
			"invalid engine API version %q", engineVersion)
	}

	if !constraint.Check(version) {
		return errors.Newf(errors.ErrCodeVersionMismatch,
			"plugin %s requires API %s but engine provides %s", d.Name, d.APIVersion, engineVersion)
	}

	return nil
}

// ConfigSchemaJSON generates the JSON schema of the plugin's configuration
// struct. Returns an empty object schema when the plugin takes no
// configuration.
func (d Descriptor) ConfigSchemaJSON() (string, error) {
	if d.ConfigPrototype == nil {
		return "{}", nil
	}

	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
	}

	schema := reflector.Reflect(d.ConfigPrototype)
	schema.Title = d.Name + "-config"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", errors.Wrapf(errors.ErrCodeInvalidConfiguration, err,
			"failed to generate config schema for plugin %s", d.Name)
	}

	return string(data), nil
}
