//go:build property

package registry

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestTaskOrderingProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(1357)
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("file name numbers round trip", prop.ForAll(
		func(n int, suffix string) bool {
			ordinal, ok := ParseOrdinal(fmt.Sprintf("task%d%s", n, suffix))
			return ok && ordinal == n
		},
		gen.IntRange(0, 1_000_000),
		gen.AlphaString(),
	))

	properties.Property("sorted tasks are ordered and stable", prop.ForAll(
		func(ordinals []int) bool {
			tasks := make([]Task, len(ordinals))
			for i, n := range ordinals {
				tasks[i] = Task{Name: fmt.Sprintf("t%03d", i), Ordinal: n}
			}
			SortTasks(tasks)

			for i := 1; i < len(tasks); i++ {
				prev, cur := tasks[i-1], tasks[i]
				if prev.Ordinal > cur.Ordinal {
					return false
				}
				// Equal ordinals keep input order; names encode it.
				if prev.Ordinal == cur.Ordinal && prev.Name > cur.Name {
					return false
				}
			}
			return len(tasks) == len(ordinals)
		},
		gen.SliceOf(gen.IntRange(0, 20)),
	))

	properties.Property("navigation indexes every group", prop.ForAll(
		func(count int) bool {
			groups := make([]*TaskGroup, count)
			for i := range groups {
				groups[i] = &TaskGroup{Name: fmt.Sprintf("labwork_%d", i), Ordinal: i}
			}
			nav := NewNavigation(groups)
			for _, g := range groups {
				found, ok := nav.Group(g.Name)
				if !ok || found != g {
					return false
				}
			}
			return len(nav.Groups) == count
		},
		gen.IntRange(0, 50),
	))

	properties.TestingRun(t)
}
