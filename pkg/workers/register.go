package workers

import (
	"github.com/troupelabs/troupe/pkg/core"
	"github.com/troupelabs/troupe/pkg/history"
	"github.com/troupelabs/troupe/pkg/registry"
)

// RegisterDefaults wires the full default worker set into reg. The history
// store may be nil; only the meta worker uses it.
func RegisterDefaults(reg *registry.Registry, store *history.Store) error {
	ctors := map[string]registry.Constructor{
		"planner":     func() core.Worker { return NewPlanner() },
		"critic":      func() core.Worker { return NewCritic() },
		"synthesizer": func() core.Worker { return NewSynthesizer() },
		"docs":        func() core.Worker { return NewDocs() },
		"writer":      func() core.Worker { return NewWriter() },
		"explainer":   func() core.Worker { return NewExplainer() },
		"coder":       func() core.Worker { return NewCoder() },
		"analyst":     func() core.Worker { return NewAnalyst() },
		"meta":        func() core.Worker { return NewMeta(store) },
	}
	for name, ctor := range ctors {
		if err := reg.Register(name, ctor); err != nil {
			return err
		}
	}
	return nil
}
