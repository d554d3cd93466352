package testutil

// FixedSession returns the same session id on every call, so every app in
// a test writes to one session and golden traces stay byte-identical.
//
// It satisfies host.SessionGenerator. Unlike host.FixedGenerator, which
// hands out ids in sequence and panics when exhausted, it never runs out.
type FixedSession struct {
	id string
}

// NewFixedSession creates a generator for id.
// An empty id becomes "test-session-default".
func NewFixedSession(id string) *FixedSession {
	if id == "" {
		id = "test-session-default"
	}
	return &FixedSession{id: id}
}

// Generate returns the fixed id.
func (g *FixedSession) Generate() string {
	return g.id
}
