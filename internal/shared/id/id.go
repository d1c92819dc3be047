// Package id generates run identifiers.
//
// Run IDs are prefixed ULIDs ("run_01J..."). They sort by start time, so the
// runs interleaved in one application.log can be ordered without parsing
// timestamps.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// RunPrefix marks run IDs in logs and on /status.
const RunPrefix = "run"

// RunID identifies one process lifetime of the shell
type RunID string

func (id RunID) String() string { return string(id) }

// Time returns the moment the ID was generated.
func (id RunID) Time() (time.Time, error) {
	raw, ok := strings.CutPrefix(string(id), RunPrefix+"_")
	if !ok {
		return time.Time{}, fmt.Errorf("run id %q has no %s prefix", id, RunPrefix)
	}
	parsed, err := ulid.Parse(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid run id %q: %w", id, err)
	}
	return ulid.Time(parsed.Time()), nil
}

// Generator produces ULIDs from a shared entropy source
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
	now     func() time.Time
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the process-wide generator
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator(rand.Reader, time.Now)
	})
	return defaultGenerator
}

// NewGenerator creates a generator. Tests pass deterministic entropy and clock.
func NewGenerator(entropy io.Reader, now func() time.Time) *Generator {
	return &Generator{entropy: entropy, now: now}
}

// RunID returns a new run ID
func (g *Generator) RunID() RunID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return RunID(RunPrefix + "_" + ulid.MustNew(ulid.Timestamp(g.now()), g.entropy).String())
}

// NewRunID returns a run ID from the default generator
func NewRunID() RunID {
	return Default().RunID()
}
