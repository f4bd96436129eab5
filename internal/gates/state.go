package gates

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/ohmymkt/internal/store"
)

// LoadState returns the persisted gate state, seeding it from the gates
// template (stamped with updated_at) when no state file exists yet. An
// existing file is never overwritten here.
func LoadState(s *store.Store) State {
	gatesFile := s.Paths().GatesFile

	if !store.Exists(gatesFile) {
		seed := store.ReadJSON(s.Templates().GatesTemplate, State{})
		seed = seed.Clone()
		seed[updatedAtField] = s.NowISO()
		if err := store.WriteJSON(gatesFile, seed); err != nil {
			// Unwritable runtime dir: evaluate the seed in memory.
			return seed
		}
	}

	return store.ReadJSON(gatesFile, State{})
}

// UpdateField sets one field on one gate and persists the state. The raw
// value is parsed as a boolean, a number, or kept as a string.
func UpdateField(s *store.Store, gate, field, raw string) (State, error) {
	key, err := ParseKey(gate)
	if err != nil {
		return nil, err
	}
	field = strings.TrimSpace(field)
	if field == "" {
		return nil, store.Validationf("field", "Gate field name is required")
	}

	state := LoadState(s).Clone()
	section := state.Section(string(key)).Clone()
	section[field] = store.ParseValue(raw)
	state[string(key)] = map[string]any(section)
	state[updatedAtField] = s.NowISO()

	if err := store.WriteJSON(s.Paths().GatesFile, state); err != nil {
		return nil, fmt.Errorf("failed to persist gate state: %w", err)
	}
	return state, nil
}

// Transition is a change in one gate's status between two evaluations.
type Transition struct {
	Key  Key    `json:"key"`
	From Status `json:"from"`
	To   Status `json:"to"`
}

// Diff returns the gates whose status differs between prev and next.
// A gate absent from prev is reported with an empty From.
func Diff(prev, next []Evaluation) []Transition {
	before := make(map[Key]Status, len(prev))
	for _, e := range prev {
		before[e.Key] = e.Status
	}
	var out []Transition
	for _, e := range next {
		if from := before[e.Key]; from != e.Status {
			out = append(out, Transition{Key: e.Key, From: from, To: e.Status})
		}
	}
	return out
}
