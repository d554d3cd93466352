package scenario

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario drives one app through a list of steps and checks the outcome.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario checks.
	Description string `yaml:"description"`

	// Session is a fixed session id for deterministic traces.
	// If empty, defaults to "test-session-default".
	Session string `yaml:"session,omitempty"`

	// MaxSteps overrides the per-drain step quota. Zero keeps the default.
	MaxSteps int `yaml:"max_steps,omitempty"`

	// Init is the initial state.
	Init any `yaml:"init"`

	// Slices declares the mappers that action expressions and views refer
	// to by name.
	Slices map[string]Slice `yaml:"slices,omitempty"`

	// View, when set, renders buttons whose handlers steps can fire.
	View *View `yaml:"view,omitempty"`

	// Subscriptions are trigger subscriptions, indexed by position.
	Subscriptions []Subscription `yaml:"subscriptions,omitempty"`

	// Steps run in order after the initial state settles.
	Steps []Step `yaml:"steps"`

	// Expect is checked once every step has run.
	Expect Expect `yaml:"expect"`
}

// Slice declares a mapper: either a key path into the state, or a mapper
// from the catalog.
type Slice struct {
	Path []string `yaml:"path,omitempty"`
	Ref  string   `yaml:"ref,omitempty"`
}

// ActionExpr builds an action.
//
// Exactly one of Ref and Value is set. Payload or Transform wraps the
// action in a tuple. Via maps the result through the named slices,
// innermost first.
type ActionExpr struct {
	Ref       string   `yaml:"ref,omitempty"`
	Value     any      `yaml:"value,omitempty"`
	Payload   any      `yaml:"payload,omitempty"`
	Transform string   `yaml:"transform,omitempty"`
	Via       []string `yaml:"via,omitempty"`
}

// View is a flat list of buttons under one root element.
type View struct {
	// Via maps the whole rendered tree, innermost first.
	Via      []string  `yaml:"via,omitempty"`
	Elements []Element `yaml:"elements"`
}

// Element is one button.
type Element struct {
	ID string `yaml:"id"`

	// Event names the handler property without its prefix.
	// If empty, defaults to "click".
	Event  string     `yaml:"event,omitempty"`
	Action ActionExpr `yaml:"action"`

	// Via maps the element before it is nested, innermost first.
	Via []string `yaml:"via,omitempty"`

	// Switch replaces Via while its condition holds.
	Switch *Switch `yaml:"switch,omitempty"`

	// Depth wraps the element in that many plain elements.
	Depth int `yaml:"depth,omitempty"`

	// Pass exempts the element from every mapping applied around it.
	Pass bool `yaml:"pass,omitempty"`

	// Around maps the element after Depth and Pass, innermost first.
	Around []string `yaml:"around,omitempty"`
}

// Condition holds when the integer at Path is greater than Above.
type Condition struct {
	Path  []string `yaml:"path"`
	Above int      `yaml:"above"`
}

// Switch picks Via while its condition holds.
type Switch struct {
	Condition `yaml:",inline"`
	Via       []string `yaml:"via"`
}

// Subscription is a trigger subscription dispatching Action with the
// payload given to a trigger step.
type Subscription struct {
	Action ActionExpr `yaml:"action"`

	// Via maps the subscription descriptor, innermost first.
	Via []string `yaml:"via,omitempty"`

	// While keeps the subscription slot empty unless it holds.
	While *Condition `yaml:"while,omitempty"`
}

// Step is one interaction. Exactly one of Dispatch, Event and Trigger is set.
type Step struct {
	Dispatch *ActionExpr `yaml:"dispatch,omitempty"`

	// Event is the id of the element to fire On at.
	Event string `yaml:"event,omitempty"`
	On    string `yaml:"on,omitempty"`

	// Trigger is the position of the subscription to fire.
	Trigger *int `yaml:"trigger,omitempty"`

	Payload any `yaml:"payload,omitempty"`

	// ExpectState, when set, must equal the state after the step.
	ExpectState any `yaml:"expect_state,omitempty"`

	// ExpectError, when set, is the error code the step must fail with.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Expect holds the final checks.
type Expect struct {
	State              any   `yaml:"state,omitempty"`
	Reports            []any `yaml:"reports,omitempty"`
	SubscriptionStarts *int  `yaml:"subscription_starts,omitempty"`
}

// Load reads, parses and validates a scenario YAML file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Parse parses and validates scenario YAML.
//
// Unknown fields are rejected, the document is checked against the
// embedded CUE schema, and every name it refers to must resolve.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // Reject typos like "step:" vs "steps:"
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := Validate(raw); err != nil {
		return nil, err
	}

	if err := validateScenario(&sc); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &sc, nil
}

// validateScenario checks what the schema cannot: names resolve and
// steps fit the declared view and subscriptions.
func validateScenario(s *Scenario) error {
	for name, sl := range s.Slices {
		if (len(sl.Path) == 0) == (sl.Ref == "") {
			return fmt.Errorf("slices.%s: exactly one of path and ref is required", name)
		}
		if sl.Ref != "" {
			if _, ok := mapperEntries[sl.Ref]; !ok {
				return fmt.Errorf("slices.%s: unknown mapper %q", name, sl.Ref)
			}
		}
	}

	checkExpr := func(where string, e ActionExpr) error {
		if (e.Ref == "") == (e.Value == nil) {
			return fmt.Errorf("%s: exactly one of ref and value is required", where)
		}
		if e.Payload != nil && e.Transform != "" {
			return fmt.Errorf("%s: payload and transform are exclusive", where)
		}
		if e.Ref != "" {
			if _, ok := actionEntries[e.Ref]; !ok {
				return fmt.Errorf("%s: unknown action %q", where, e.Ref)
			}
		}
		if e.Transform != "" {
			if _, ok := transformEntries[e.Transform]; !ok {
				return fmt.Errorf("%s: unknown transform %q", where, e.Transform)
			}
		}
		return checkVia(s, where, e.Via)
	}

	ids := map[string]bool{}
	if s.View != nil {
		if err := checkVia(s, "view", s.View.Via); err != nil {
			return err
		}
		for i, el := range s.View.Elements {
			where := fmt.Sprintf("view.elements[%d]", i)
			if ids[el.ID] {
				return fmt.Errorf("%s: duplicate id %q", where, el.ID)
			}
			ids[el.ID] = true
			if err := checkExpr(where+".action", el.Action); err != nil {
				return err
			}
			if err := checkVia(s, where, el.Via); err != nil {
				return err
			}
			if err := checkVia(s, where+".around", el.Around); err != nil {
				return err
			}
			if el.Switch != nil {
				if err := checkVia(s, where+".switch", el.Switch.Via); err != nil {
					return err
				}
			}
		}
	}

	for i, sub := range s.Subscriptions {
		where := fmt.Sprintf("subscriptions[%d]", i)
		if err := checkExpr(where+".action", sub.Action); err != nil {
			return err
		}
		if err := checkVia(s, where, sub.Via); err != nil {
			return err
		}
	}

	for i, st := range s.Steps {
		where := fmt.Sprintf("steps[%d]", i)
		set := 0
		for _, ok := range []bool{st.Dispatch != nil, st.Event != "", st.Trigger != nil} {
			if ok {
				set++
			}
		}
		if set != 1 {
			return fmt.Errorf("%s: exactly one of dispatch, event and trigger is required", where)
		}
		switch {
		case st.Dispatch != nil:
			if err := checkExpr(where+".dispatch", *st.Dispatch); err != nil {
				return err
			}
		case st.Event != "":
			if !ids[st.Event] {
				return fmt.Errorf("%s: no view element with id %q", where, st.Event)
			}
		case st.Trigger != nil:
			if *st.Trigger >= len(s.Subscriptions) {
				return fmt.Errorf("%s: trigger %d out of range (%d subscriptions)", where, *st.Trigger, len(s.Subscriptions))
			}
		}
	}

	return nil
}

func checkVia(s *Scenario, where string, via []string) error {
	for _, name := range via {
		if _, ok := s.Slices[name]; !ok {
			return fmt.Errorf("%s: unknown slice %q", where, name)
		}
	}
	return nil
}
