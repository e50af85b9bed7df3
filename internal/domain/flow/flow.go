// Package flow holds the declarative definitions of every multi-step
// conversation the bot can run. Definitions are pure data: the router and
// step handlers read them, nothing mutates them after startup.
package flow

import (
	"fmt"

	"telegram-marketplace-bot/internal/domain"
)

// Name identifies a flow. The empty name means "no active flow".
type Name string

const (
	None          Name = ""
	Registration  Name = "registration"
	RegisterStore Name = "register_store"
	CreateOffer   Name = "create_offer"
	BulkCreate    Name = "bulk_create"
	ChangeCity    Name = "change_city"
	EditOffer     Name = "edit_offer"
	ConfirmOrder  Name = "confirm_order"
	BookOffer     Name = "book_offer"
)

// InputKind is the kind of update a step expects.
type InputKind string

const (
	InputText     InputKind = "text"
	InputContact  InputKind = "contact"
	InputPhoto    InputKind = "photo"
	InputCallback InputKind = "callback"
	// InputAny accepts text, contact or photo. Used by steps that allow
	// skipping an attachment.
	InputAny InputKind = "any"
)

// Accepts reports whether a step expecting the kind can consume the given
// input kind.
func (k InputKind) Accepts(got InputKind) bool {
	if k == InputAny {
		return got == InputText || got == InputContact || got == InputPhoto
	}
	return k == got
}

// ValidationError rejects step input. Key is a localization key shown to the
// user as the inline correction message; the session stays untouched.
type ValidationError struct {
	Key  string
	Args []interface{}
}

func (e *ValidationError) Error() string { return "validation failed: " + e.Key }

func Invalid(key string, args ...interface{}) error {
	return &ValidationError{Key: key, Args: args}
}

// Validator checks raw step input against the data collected so far and
// returns the value to store. Validators are pure: no I/O, no session writes.
type Validator func(raw string, data map[string]string) (string, error)

// TransitionKind is what happens after a step validates.
type TransitionKind int

const (
	// TransitionNext advances to the following step in order.
	TransitionNext TransitionKind = iota
	// TransitionGoto jumps to a named step.
	TransitionGoto
	// TransitionTerminal completes the flow, triggering the commit.
	TransitionTerminal
)

type Transition struct {
	Kind   TransitionKind
	Target string
}

func Next() Transition            { return Transition{Kind: TransitionNext} }
func Goto(step string) Transition { return Transition{Kind: TransitionGoto, Target: step} }
func Terminal() Transition        { return Transition{Kind: TransitionTerminal} }

// Step is one unit of a flow: it expects one kind of input, validates it into
// one field, and names the transition taken on success.
type Step struct {
	Name     string
	Field    string
	Input    InputKind
	Prompt   string // localization key sent when the step becomes current
	Validate Validator
	Next     Transition

	// SkipIf skips the step during transition resolution when the collected
	// data already answers it (e.g. store pre-selected because the seller has
	// exactly one). Nil means never skip.
	SkipIf func(data map[string]string) bool
}

// Definition is a complete, immutable flow.
type Definition struct {
	Name  Name
	Steps []Step

	// MenuFallback allows free text rejected by the current step to fall
	// through to menu interpretation instead of a re-prompt.
	MenuFallback bool
}

func (d *Definition) StepAt(i int) (*Step, bool) {
	if i < 0 || i >= len(d.Steps) {
		return nil, false
	}
	return &d.Steps[i], true
}

func (d *Definition) indexOf(name string) int {
	for i := range d.Steps {
		if d.Steps[i].Name == name {
			return i
		}
	}
	return -1
}

// Resolve returns the index of the step that follows step i, applying the
// transition and then skipping any steps whose SkipIf fires against data.
// done is true when the flow terminates.
func (d *Definition) Resolve(i int, data map[string]string) (next int, done bool) {
	step, ok := d.StepAt(i)
	if !ok {
		return 0, true
	}
	switch step.Next.Kind {
	case TransitionTerminal:
		return 0, true
	case TransitionGoto:
		next = d.indexOf(step.Next.Target)
	default:
		next = i + 1
	}
	for {
		s, ok := d.StepAt(next)
		if !ok {
			return 0, true
		}
		if s.SkipIf == nil || !s.SkipIf(data) {
			return next, false
		}
		if s.Next.Kind == TransitionTerminal {
			return 0, true
		}
		if s.Next.Kind == TransitionGoto {
			next = d.indexOf(s.Next.Target)
			continue
		}
		next++
	}
}

// EntryStep returns the first non-skipped step index for freshly seeded data.
func (d *Definition) EntryStep(data map[string]string) (int, bool) {
	for i := range d.Steps {
		s := &d.Steps[i]
		if s.SkipIf == nil || !s.SkipIf(data) {
			return i, true
		}
	}
	return 0, false
}

// Registry holds every known flow. Built once at startup; Validate fails
// fast before any traffic is accepted.
type Registry struct {
	flows map[Name]*Definition
}

func NewRegistry(defs ...*Definition) (*Registry, error) {
	r := &Registry{flows: make(map[Name]*Definition, len(defs))}
	for _, d := range defs {
		if _, dup := r.flows[d.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate flow %q", domain.ErrFlowConfig, d.Name)
		}
		r.flows[d.Name] = d
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) Get(name Name) (*Definition, bool) {
	d, ok := r.flows[name]
	return d, ok
}

func (r *Registry) validate() error {
	for name, d := range r.flows {
		if len(d.Steps) == 0 {
			return fmt.Errorf("%w: flow %q has no steps", domain.ErrFlowConfig, name)
		}
		seen := make(map[string]struct{}, len(d.Steps))
		terminal := false
		for i := range d.Steps {
			s := &d.Steps[i]
			if s.Name == "" {
				return fmt.Errorf("%w: flow %q step %d is unnamed", domain.ErrFlowConfig, name, i)
			}
			if _, dup := seen[s.Name]; dup {
				return fmt.Errorf("%w: flow %q has duplicate step %q", domain.ErrFlowConfig, name, s.Name)
			}
			seen[s.Name] = struct{}{}
			switch s.Next.Kind {
			case TransitionTerminal:
				terminal = true
			case TransitionGoto:
				if d.indexOf(s.Next.Target) < 0 {
					return fmt.Errorf("%w: flow %q step %q jumps to unknown step %q", domain.ErrFlowConfig, name, s.Name, s.Next.Target)
				}
			case TransitionNext:
				if i == len(d.Steps)-1 {
					return fmt.Errorf("%w: flow %q last step %q falls off the end", domain.ErrFlowConfig, name, s.Name)
				}
			}
		}
		if !terminal {
			return fmt.Errorf("%w: flow %q has no terminal step", domain.ErrFlowConfig, name)
		}
	}
	return nil
}
