package pipeline

import (
	"strings"

	"github.com/rxtech-lab/argo-pipeline/internal/plugin"
	"github.com/rxtech-lab/argo-pipeline/pkg/errors"
)

// PipelineContext is the resolved execution order for one run. Built once
// at construction and immutable thereafter.
type PipelineContext []plugin.Descriptor

// Names returns the plugin names in execution order.
func (c PipelineContext) Names() []string {
	names := make([]string, len(c))
	for i, d := range c {
		names[i] = d.Name
	}

	return names
}

// ResolveOrder orders the descriptors so that every plugin appears after
// all of its declared dependencies. The sort is deterministic: among
// plugins whose dependencies are satisfied, declaration order wins, so the
// same input always yields the same execution order.
func ResolveOrder(descriptors []plugin.Descriptor) (PipelineContext, error) {
	index := make(map[string]int, len(descriptors))
	for i, d := range descriptors {
		index[d.Name] = i
	}

	// Every dependency must resolve to another descriptor in the active
	// set; partial pipelines never run.
	for _, d := range descriptors {
		for _, dep := range d.Dependencies {
			if _, exists := index[dep]; !exists {
				return nil, errors.Newf(errors.ErrCodeMissingDependency,
					"plugin %s depends on %s, which is not active in this mode", d.Name, dep)
			}
		}
	}

	placed := make([]bool, len(descriptors))
	order := make(PipelineContext, 0, len(descriptors))

	ready := func(i int) bool {
		for _, dep := range descriptors[i].Dependencies {
			if !placed[index[dep]] {
				return false
			}
		}

		return true
	}

	for len(order) < len(descriptors) {
		progressed := false

		for i, d := range descriptors {
			if placed[i] || !ready(i) {
				continue
			}

			placed[i] = true
			order = append(order, d)
			progressed = true
		}

		if !progressed {
			return nil, errors.Newf(errors.ErrCodeDependencyCycle,
				"dependency cycle among plugins: %s",
				strings.Join(cycleMembers(descriptors, placed, index), ", "))
		}
	}

	return order, nil
}

// cycleMembers names the plugins that sit on a dependency cycle: the
// unplaced descriptors that can reach themselves through unplaced
// dependencies. Plugins that merely depend on a cycle are left out.
func cycleMembers(descriptors []plugin.Descriptor, placed []bool, index map[string]int) []string {
	reaches := func(from, target int) bool {
		visited := make([]bool, len(descriptors))

		stack := []int{from}
		for len(stack) > 0 {
			node := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			for _, dep := range descriptors[node].Dependencies {
				next := index[dep]
				if placed[next] || visited[next] {
					continue
				}

				if next == target {
					return true
				}

				visited[next] = true
				stack = append(stack, next)
			}
		}

		return false
	}

	var members []string

	for i, d := range descriptors {
		if !placed[i] && reaches(i, i) {
			members = append(members, d.Name)
		}
	}

	return members
}
