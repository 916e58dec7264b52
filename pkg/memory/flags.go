package memory

import (
	"context"

	"github.com/troupelabs/troupe/pkg/core"
)

// flagsKey marks a flag entry so workers can find the most recent one among
// arbitrary memory contents.
const flagsKey = "troupe_flags"

// Flags is the soft-switch bag individual workers may read (for example
// force_structure or expand_when_short). The orchestration core never
// inspects it.
type Flags map[string]bool

// SetFlags stores a flag bag in the memory.
func SetFlags(ctx context.Context, mem core.Memory, flags Flags) error {
	entry := map[string]any{flagsKey: map[string]bool(flags)}
	return mem.Store(ctx, entry)
}

// FlagEnabled reports whether the named flag is set in the most recent flag
// bag. Missing memory, missing bags, and unreadable entries all read as
// false: flags are advisory.
func FlagEnabled(ctx context.Context, mem core.Memory, name string) bool {
	if mem == nil {
		return false
	}
	entry, err := mem.Retrieve(ctx, func(e any) bool {
		return flagsFromEntry(e) != nil
	})
	if err != nil {
		return false
	}
	flags := flagsFromEntry(entry)
	return flags[name]
}

// flagsFromEntry extracts the flag bag from a stored entry. Entries read back
// from a FileStore come as map[string]any after the JSON round trip.
func flagsFromEntry(e any) map[string]bool {
	m, ok := e.(map[string]any)
	if !ok {
		return nil
	}
	raw, ok := m[flagsKey]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case map[string]bool:
		return v
	case Flags:
		return v
	case map[string]any:
		out := make(map[string]bool, len(v))
		for k, val := range v {
			b, ok := val.(bool)
			out[k] = ok && b
		}
		return out
	}
	return nil
}
