package agent

import (
	"context"
	"errors"
	"fmt"
)

// Step identifies one node of the item agent's step graph.
type Step string

const (
	StepDialogue Step = "dialogue"
	StepDispatch Step = "dispatch"
	StepEmbed    Step = "embed"
	StepPersist  Step = "persist"
	StepFetch    Step = "fetch"
	StepFormat   Step = "format"
	StepDone     Step = "done"
)

// defaultMaxSteps caps the number of graph steps one turn may take. The cap
// exists because the graph is intentionally cyclic; a turn that has not
// terminated by then is aborted.
const defaultMaxSteps = 24

// ErrStepLimit is returned when a turn exceeds the configured step cap.
var ErrStepLimit = errors.New("agent: step limit exceeded")

// Config tunes the agent core. The zero value selects all defaults.
type Config struct {
	// MaxSteps caps graph steps per turn. Zero selects 24.
	MaxSteps int

	// MaxFillPasses caps outfit fill-loop passes. Zero selects 3.
	MaxFillPasses int

	// RequiredCategories lists the slots an outfit must cover. Empty selects
	// top, bottom, shoes.
	RequiredCategories []string

	// SystemPrompt overrides the built-in assistant persona.
	SystemPrompt string
}

func (c Config) maxSteps() int {
	if c.MaxSteps > 0 {
		return c.MaxSteps
	}
	return defaultMaxSteps
}

func (c Config) maxFillPasses() int {
	if c.MaxFillPasses > 0 {
		return c.MaxFillPasses
	}
	return defaultMaxFillPasses
}

func (c Config) requiredCategories() []string {
	if len(c.RequiredCategories) > 0 {
		return c.RequiredCategories
	}
	return defaultRequiredCategories
}

func (c Config) systemPrompt() string {
	if c.SystemPrompt != "" {
		return c.SystemPrompt
	}
	return defaultSystemPrompt
}

// Controller runs the clothing-item step graph: Dialogue emits tool requests,
// Dispatch executes them, and the routing function selects the capture or
// search pipeline from the resulting state.
type Controller struct {
	caps  Capabilities
	cfg   Config
	tools *toolset
}

// NewController creates a controller over the given capabilities.
func NewController(caps Capabilities, cfg Config) *Controller {
	return &Controller{
		caps:  caps,
		cfg:   cfg,
		tools: newToolset(caps),
	}
}

// Run executes the step graph to completion, mutating st in place. On return
// without error, the final assistant turn of st is the reply.
//
// Capability failures and invariant violations abort the turn and propagate;
// the orchestrator boundary converts them into an apologetic reply.
func (c *Controller) Run(ctx context.Context, st *State) error {
	step := StepDialogue
	for i := 0; i < c.cfg.maxSteps(); i++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("agent: %w", err)
		}

		next, err := c.execute(ctx, step, st)
		if err != nil {
			return err
		}
		if next == StepDone {
			return nil
		}
		step = next
	}
	return fmt.Errorf("%w (%d)", ErrStepLimit, c.cfg.maxSteps())
}

// execute runs one step and returns the next one.
func (c *Controller) execute(ctx context.Context, step Step, st *State) (Step, error) {
	switch step {
	case StepDialogue:
		return c.dialogue(ctx, st)
	case StepDispatch:
		if err := c.dispatch(ctx, st); err != nil {
			return StepDone, err
		}
		return route(st), nil
	case StepEmbed:
		if err := c.embed(ctx, st); err != nil {
			return StepDone, err
		}
		return StepPersist, nil
	case StepPersist:
		if err := c.persist(ctx, st); err != nil {
			return StepDone, err
		}
		// Persist consumed the caption, so this picks up a search result
		// still pending from the same dispatch batch, or returns to
		// dialogue.
		return route(st), nil
	case StepFetch:
		if err := c.fetch(ctx, st); err != nil {
			return StepDone, err
		}
		return StepFormat, nil
	case StepFormat:
		c.format(st)
		return StepDialogue, nil
	default:
		return StepDone, fmt.Errorf("agent: unknown step %q", step)
	}
}

// route picks the pipeline continuation after tool dispatch. It is a pure
// function of state, priority-ordered: a pending caption always wins over a
// pending search result, and unrecognised tool output returns to dialogue.
func route(st *State) Step {
	if st.Caption != "" {
		return StepEmbed
	}
	if st.SearchPerformed {
		return StepFetch
	}
	return StepDialogue
}
