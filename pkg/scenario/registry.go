// Package scenario holds the business scenarios run against the user API.
package scenario

import (
	"context"
	"fmt"
	"sort"

	"github.com/saturnines/gqlprobe/pkg/config"
	"github.com/saturnines/gqlprobe/pkg/errors"
	"github.com/saturnines/gqlprobe/pkg/harness"
)

// Definition is a named scenario.
type Definition struct {
	Name        string
	Description string
	Run         harness.ScenarioFunc
}

var registry = []Definition{
	{"get-all-users", "query every user and read their first names", GetAllUsers},
	{"validate-multiple-content", "check the seeded users are all present", ValidateMultipleContent},
	{"create-user", "create a user from generated data and verify the echo", CreateUser},
	{"update-user", "rename the configured test user", UpdateUser},
	{"update-user-with-get", "read, rename and read back the configured test user", UpdateUserWithGet},
	{"delete-user", "create a throwaway user and delete it", DeleteUser},
	{"sign-in", "sign in with the configured token", SignIn},
	{"sign-up", "register a generated account", SignUp},
}

// All returns every scenario in run order.
func All() []Definition {
	return append([]Definition(nil), registry...)
}

// Names returns the scenario names in run order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for _, d := range registry {
		names = append(names, d.Name)
	}
	return names
}

// Lookup finds a scenario by name.
func Lookup(name string) (Definition, bool) {
	for _, d := range registry {
		if d.Name == name {
			return d, true
		}
	}
	return Definition{}, false
}

// Run executes the named scenarios sequentially, or all of them when no
// names are given. Each scenario is torn down before the next starts.
// Unknown names are rejected before anything runs.
func Run(ctx context.Context, h *harness.Harness, names ...string) (*harness.Report, error) {
	defs, err := resolve(names)
	if err != nil {
		return nil, err
	}

	report := &harness.Report{}
	for _, d := range defs {
		if err := ctx.Err(); err != nil {
			report.Add(harness.Result{Name: d.Name, Err: err})
			continue
		}
		report.Add(h.Run(ctx, d.Name, d.Run))
	}
	return report, nil
}

func resolve(names []string) ([]Definition, error) {
	if len(names) == 0 {
		return All(), nil
	}

	defs := make([]Definition, 0, len(names))
	var unknown []string
	for _, name := range names {
		d, ok := Lookup(name)
		if !ok {
			if suggestion, _ := config.SuggestKey(name, Names()); suggestion != "" {
				name = fmt.Sprintf("%s (did you mean %s?)", name, suggestion)
			}
			unknown = append(unknown, name)
			continue
		}
		defs = append(defs, d)
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, errors.WrapError(fmt.Errorf("unknown scenarios: %v", unknown), errors.ErrValidation, "select scenarios")
	}
	return defs, nil
}
