package host

import (
	"context"
	"fmt"
	"maps"

	"github.com/roach88/slicemap/internal/action"
)

// RecordKind distinguishes trace records.
type RecordKind string

const (
	// KindDispatch records an action committed to the state.
	KindDispatch RecordKind = "dispatch"
	// KindEffect records a one-shot effect being run.
	KindEffect RecordKind = "effect"
	// KindSubscribe records a subscription being started.
	KindSubscribe RecordKind = "subscribe"
	// KindUnsubscribe records a subscription being cancelled.
	KindUnsubscribe RecordKind = "unsubscribe"
)

// Record is one trace entry.
//
// Payload and State hold plain data only (see Describe), so every record
// can be serialized.
type Record struct {
	Session string     `json:"session"`
	Seq     int64      `json:"seq"`
	Kind    RecordKind `json:"kind"`
	Name    string     `json:"name"`
	Payload any        `json:"payload"`
	State   any        `json:"state"`
}

// Recorder receives trace records. It is called from the draining
// goroutine, in seq order. Errors are logged and do not stop the app.
type Recorder interface {
	Record(ctx context.Context, rec Record) error
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(ctx context.Context, rec Record) error

// Record calls f.
func (f RecorderFunc) Record(ctx context.Context, rec Record) error {
	return f(ctx, rec)
}

// MemoryRecorder keeps records in memory. Not safe for concurrent use
// beyond the single drainer that feeds it.
type MemoryRecorder struct {
	Records []Record
}

// Record appends rec.
func (m *MemoryRecorder) Record(_ context.Context, rec Record) error {
	m.Records = append(m.Records, rec)
	return nil
}

// Describe converts v into plain data for a trace: actions become their
// labels, effects become {"effect": name, "options": ...} and other
// non-data values become "<type>". Maps and slices are copied.
func Describe(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case action.Action:
		return action.Label(x)
	case action.Effect:
		name := "<nil>"
		if x.Fn != nil {
			name = x.Fn.Name()
		}
		return map[string]any{"effect": name, "options": Describe(x.Options)}
	case action.Options:
		return describeMap(x)
	case map[string]any:
		return describeMap(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Describe(e)
		}
		return out
	case string, bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64:
		return x
	default:
		return fmt.Sprintf("<%T>", x)
	}
}

func describeMap[M ~map[string]any](m M) map[string]any {
	out := maps.Clone(map[string]any(m))
	for k, v := range out {
		out[k] = Describe(v)
	}
	return out
}
