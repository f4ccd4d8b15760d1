// Package paper implements the paper-trading simulation engine: the
// order/trigger state machine that turns conditional advice into simulated
// fills, and the ledger that applies fills to the portfolio.
package paper

import (
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"

	"github.com/rxtech-lab/argo-pipeline/internal/types"
	"github.com/rxtech-lab/argo-pipeline/pkg/errors"
)

// TriggerState tracks the lifecycle of a conditional order.
type TriggerState string

const (
	TriggerStateCreated TriggerState = "created"
	TriggerStateFired   TriggerState = "fired"
	TriggerStateAborted TriggerState = "aborted"
)

// terminal reports whether no further transition is allowed.
func (s TriggerState) terminal() bool {
	return s == TriggerStateFired || s == TriggerStateAborted
}

// Trigger is a pending conditional order awaiting a price condition.
// Mutated only by the TriggerBook.
type Trigger struct {
	ID        string
	AdviceID  string
	Action    types.Action
	Condition types.TriggerCondition
	Amount    optional.Option[float64]
	State     TriggerState
	CreatedAt time.Time
}

// TriggerBook holds the open triggers of one run in insertion order, so
// that evaluation on the same tick is reproducible (oldest first).
type TriggerBook struct {
	active []*Trigger
	byID   map[string]*Trigger
}

// NewTriggerBook creates an empty trigger book.
func NewTriggerBook() *TriggerBook {
	return &TriggerBook{
		active: nil,
		byID:   make(map[string]*Trigger),
	}
}

// Create registers a new trigger for the given advice.
func (b *TriggerBook) Create(advice types.Advice, condition types.TriggerCondition) *Trigger {
	trigger := &Trigger{
		ID:        uuid.New().String(),
		AdviceID:  advice.ID,
		Action:    advice.Action,
		Condition: condition,
		Amount:    advice.Amount,
		State:     TriggerStateCreated,
		CreatedAt: advice.Date,
	}

	b.active = append(b.active, trigger)
	b.byID[trigger.ID] = trigger

	return trigger
}

// Get returns the trigger with the given id.
func (b *TriggerBook) Get(id string) (*Trigger, error) {
	trigger, exists := b.byID[id]
	if !exists {
		return nil, errors.Newf(errors.ErrCodeUnknownTrigger, "trigger not found: %s", id)
	}

	return trigger, nil
}

// Evaluate checks every open trigger against the new price, oldest first.
// Triggers whose condition is satisfied transition to fired and leave the
// active set; the fired triggers are returned in evaluation order.
func (b *TriggerBook) Evaluate(price float64) []*Trigger {
	var fired []*Trigger

	var remaining []*Trigger

	for _, trigger := range b.active {
		if trigger.Condition.Satisfied(price) {
			trigger.State = TriggerStateFired
			fired = append(fired, trigger)

			continue
		}

		remaining = append(remaining, trigger)
	}

	b.active = remaining

	return fired
}

// Abort transitions the trigger to aborted and removes it from the active
// set. Aborting a terminal trigger is an error: exactly one of fired or
// aborted happens per trigger.
func (b *TriggerBook) Abort(id string) (*Trigger, error) {
	trigger, err := b.Get(id)
	if err != nil {
		return nil, err
	}

	if trigger.State.terminal() {
		return nil, errors.Newf(errors.ErrCodeTriggerTerminal,
			"trigger %s is already %s", id, trigger.State)
	}

	trigger.State = TriggerStateAborted
	b.remove(id)

	return trigger, nil
}

// AbortWhere aborts every open trigger matching the predicate, in
// insertion order, and returns them.
func (b *TriggerBook) AbortWhere(match func(*Trigger) bool) []*Trigger {
	var aborted []*Trigger

	var remaining []*Trigger

	for _, trigger := range b.active {
		if match(trigger) {
			trigger.State = TriggerStateAborted
			aborted = append(aborted, trigger)

			continue
		}

		remaining = append(remaining, trigger)
	}

	b.active = remaining

	return aborted
}

// Open returns the triggers still awaiting their condition, in insertion
// order. Used at finalize time to report unresolved orders.
func (b *TriggerBook) Open() []*Trigger {
	out := make([]*Trigger, len(b.active))
	copy(out, b.active)

	return out
}

func (b *TriggerBook) remove(id string) {
	for i, trigger := range b.active {
		if trigger.ID == id {
			b.active = append(b.active[:i], b.active[i+1:]...)

			return
		}
	}
}
