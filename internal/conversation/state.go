package conversation

// State represents a step of the expense-entry conversation.
type State string

const (
	// StateIdle is the rest state: no pending entry, main menu shown.
	StateIdle State = "IDLE"

	// Photo path.
	StateAwaitingPhoto State = "AWAITING_PHOTO"

	// Review of an assembled or manually collected record.
	StateConfirm       State = "CONFIRM"
	StateChoosingField State = "CHOOSING_FIELD"
	StateEditingField  State = "EDITING_FIELD"

	// Manual-entry chain: one field per state.
	StateManualAmount     State = "MANUAL_AMOUNT"
	StateManualDateChoice State = "MANUAL_DATE_CHOICE"
	StateManualDateValue  State = "MANUAL_DATE_VALUE"
	StateManualTimeChoice State = "MANUAL_TIME_CHOICE"
	StateManualTimeValue  State = "MANUAL_TIME_VALUE"
	StateManualPlace      State = "MANUAL_PLACE"
	StateManualCategory   State = "MANUAL_CATEGORY"
)

var validStates = map[State]bool{
	StateIdle:             true,
	StateAwaitingPhoto:    true,
	StateConfirm:          true,
	StateChoosingField:    true,
	StateEditingField:     true,
	StateManualAmount:     true,
	StateManualDateChoice: true,
	StateManualDateValue:  true,
	StateManualTimeChoice: true,
	StateManualTimeValue:  true,
	StateManualPlace:      true,
	StateManualCategory:   true,
}

// States lists every conversation state.
func States() []State {
	return []State{
		StateIdle,
		StateAwaitingPhoto,
		StateConfirm,
		StateChoosingField,
		StateEditingField,
		StateManualAmount,
		StateManualDateChoice,
		StateManualDateValue,
		StateManualTimeChoice,
		StateManualTimeValue,
		StateManualPlace,
		StateManualCategory,
	}
}

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known conversation state.
func (s State) IsValid() bool {
	return validStates[s]
}
