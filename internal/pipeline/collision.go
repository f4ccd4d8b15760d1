package pipeline

import (
	"fmt"
	"strings"

	"github.com/rxtech-lab/argo-pipeline/internal/plugin"
	"github.com/rxtech-lab/argo-pipeline/pkg/errors"
)

// ValidateEventCollisions checks that no event name is emitted by more
// than one active plugin. Every collision is collected into a single
// error so the operator can fix all of them in one pass.
func ValidateEventCollisions(descriptors []plugin.Descriptor) error {
	emitters := make(map[string][]string)

	var eventOrder []string

	for _, d := range descriptors {
		for _, event := range d.EventsEmitted {
			if _, seen := emitters[event]; !seen {
				eventOrder = append(eventOrder, event)
			}

			emitters[event] = append(emitters[event], d.Name)
		}
	}

	var collisions []string

	for _, event := range eventOrder {
		plugins := emitters[event]
		if len(plugins) > 1 {
			collisions = append(collisions,
				fmt.Sprintf("event %q emitted by plugins %s", event, strings.Join(plugins, ", ")))
		}
	}

	if len(collisions) > 0 {
		return errors.Newf(errors.ErrCodeEventCollision,
			"event collisions detected: %s", strings.Join(collisions, "; "))
	}

	return nil
}
