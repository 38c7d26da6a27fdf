package conversation

// flowBuilder holds the expense-conversation transition table. Cancel
// is permitted from every non-idle state and always lands on idle; the
// caller discards the pending entry alongside.
var flowBuilder = buildFlow()

func buildFlow() *Builder {
	b := NewBuilder()

	b.Permit(StateIdle, TriggerStartPhoto, StateAwaitingPhoto)
	b.Permit(StateIdle, TriggerStartManual, StateManualAmount)

	b.Permit(StateAwaitingPhoto, TriggerPhotoReceived, StateConfirm)

	b.Permit(StateConfirm, TriggerAccept, StateIdle)
	b.Permit(StateConfirm, TriggerReject, StateChoosingField)

	b.Permit(StateChoosingField, TriggerSelectField, StateEditingField)
	b.Permit(StateEditingField, TriggerSubmitValue, StateConfirm)

	b.Permit(StateManualAmount, TriggerNext, StateManualDateChoice)
	b.Permit(StateManualDateChoice, TriggerUseCurrent, StateManualTimeChoice)
	b.Permit(StateManualDateChoice, TriggerNext, StateManualDateValue)
	b.Permit(StateManualDateValue, TriggerNext, StateManualTimeChoice)
	b.Permit(StateManualTimeChoice, TriggerUseCurrent, StateManualPlace)
	b.Permit(StateManualTimeChoice, TriggerNext, StateManualTimeValue)
	b.Permit(StateManualTimeValue, TriggerNext, StateManualPlace)
	b.Permit(StateManualPlace, TriggerNext, StateManualCategory)
	b.Permit(StateManualCategory, TriggerNext, StateConfirm)

	for _, s := range States() {
		if s != StateIdle {
			b.Permit(s, TriggerCancel, StateIdle)
		}
	}

	return b
}

// NewFlow returns a machine over the expense-conversation transition
// table positioned at the given state.
func NewFlow(at State) (*Machine, error) {
	return flowBuilder.Build(at)
}
