package app

import (
	"fmt"

	"github.com/DesolationStaging/mediarm/resource"
)

// Options configures the top-level controller.
type Options struct {
	// ConfigPath points to the optional daemon config file.
	ConfigPath string
}

// App exposes high-level arbiter operations that the CLI/TUI can reuse.
type App struct {
	cfgPath string
}

// New constructs the shared controller facade.
func New(opts Options) *App {
	return &App{cfgPath: opts.ConfigPath}
}

// ConfigPath returns the configured config file path (if any).
func (a *App) ConfigPath() string {
	return a.cfgPath
}

// ResourceSpec is a CLI-facing (kind-tag, value) pair, parsed from flags by
// the CLI and converted into a resource.Resource by toDomainResources.
type ResourceSpec struct {
	Kind  string
	Value uint64
}

func toDomainResources(specs []ResourceSpec) ([]resource.Resource, error) {
	out := make([]resource.Resource, 0, len(specs))
	for _, s := range specs {
		kind, ok := resource.ParseKind(s.Kind)
		if !ok {
			return nil, fmt.Errorf("unknown resource kind %q", s.Kind)
		}
		out = append(out, resource.Resource{Kind: kind, Value: s.Value})
	}
	return out, nil
}
