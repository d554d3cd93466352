package scenario

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/slicemap/internal/canon"
	"github.com/roach88/slicemap/internal/host"
)

// Snapshot renders a run as canonical JSON: the scenario name, the session
// id, every trace record and the final state. Equal runs produce equal
// bytes.
func Snapshot(name string, result *Result) ([]byte, error) {
	session := ""
	trace := make([]any, len(result.Trace))
	for i, rec := range result.Trace {
		session = rec.Session
		trace[i] = map[string]any{
			"seq":     rec.Seq,
			"kind":    string(rec.Kind),
			"name":    rec.Name,
			"payload": rec.Payload,
			"state":   rec.State,
		}
	}

	return canon.Marshal(map[string]any{
		"scenario": name,
		"session":  session,
		"trace":    trace,
		"state":    host.Describe(result.State),
	})
}

// RunWithGolden runs a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/scenario -update
func RunWithGolden(t *testing.T, sc *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(sc, opts...)
	if err != nil {
		return nil, err
	}

	snap, err := Snapshot(sc.Name, result)
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, sc.Name, snap)

	return result, nil
}
