package engine

import (
	"fmt"
	"strings"

	"github.com/bamsammich/cloudmig/internal/platform"
)

// DehydrateMode selects which source files are returned to cloud-only state
// after a successful migration.
type DehydrateMode int

const (
	// HydratedOnly dehydrates only files this run had to hydrate.
	HydratedOnly DehydrateMode = iota
	// All dehydrates every migrated or skipped source file.
	All
	// None never dehydrates.
	None
)

var modeNames = [...]string{
	HydratedOnly: "hydrated-only",
	All:          "all",
	None:         "none",
}

func (m DehydrateMode) String() string {
	if m >= 0 && int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("DehydrateMode(%d)", int(m))
}

// ParseDehydrateMode parses a mode name. Matching ignores case, and
// "hydratedonly" / "hydrated_only" are accepted alongside "hydrated-only".
func ParseDehydrateMode(s string) (DehydrateMode, error) {
	norm := strings.NewReplacer("_", "", "-", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	switch norm {
	case "hydratedonly", "hydrated":
		return HydratedOnly, nil
	case "all":
		return All, nil
	case "none", "off":
		return None, nil
	default:
		return 0, fmt.Errorf("unknown dehydrate mode %q (want hydrated-only, all or none)", s)
	}
}

// Set implements pflag.Value.
func (m *DehydrateMode) Set(s string) error {
	v, err := ParseDehydrateMode(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Type implements pflag.Value.
func (*DehydrateMode) Type() string { return "mode" }

// ShouldDehydrate reports whether a source file should be returned to
// cloud-only state.
func ShouldDehydrate(mode DehydrateMode, wasHydratedThisRun bool) bool {
	switch mode {
	case All:
		return true
	case HydratedOnly:
		return wasHydratedThisRun
	default:
		return false
	}
}

// Dehydrator issues dehydrate requests for source files.
type Dehydrator struct {
	placeholders platform.Placeholders
}

// NewDehydrator creates a Dehydrator backed by p.
func NewDehydrator(p platform.Placeholders) *Dehydrator {
	return &Dehydrator{placeholders: p}
}

// Dehydrate unpins path and asks the sync client to free its local content.
// A failure leaves the file local and is reported as a
// *DehydrateRequestFailure, which callers only log.
func (d *Dehydrator) Dehydrate(path string) error {
	if err := d.placeholders.Dehydrate(path); err != nil {
		return &DehydrateRequestFailure{Path: path, Err: err}
	}
	return nil
}
