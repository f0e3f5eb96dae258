package skill

import (
	"context"
	"sync"
)

var (
	exportMu sync.RWMutex
	exported *Skill
)

// Export registers the skill this binary exposes to the host runtime.
// Generated skill_export.go files call it from init. A later call replaces
// an earlier one.
func Export(s *Skill) {
	exportMu.Lock()
	defer exportMu.Unlock()
	exported = s
}

// Exported returns the registered skill, or nil
func Exported() *Skill {
	exportMu.RLock()
	defer exportMu.RUnlock()
	return exported
}

// Run invokes the exported skill
func Run(ctx context.Context, input []byte) ([]byte, error) {
	s := Exported()
	if s == nil {
		return nil, internal("no skill has been exported")
	}
	return s.Run(ctx, input)
}

// Describe returns the metadata of the exported skill
func Describe() (Metadata, error) {
	s := Exported()
	if s == nil {
		return Metadata{}, internal("no skill has been exported")
	}
	return s.Metadata()
}
