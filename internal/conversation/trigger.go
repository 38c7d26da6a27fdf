package conversation

// Trigger represents a user action that can cause a state transition.
type Trigger string

const (
	// TriggerCancel aborts the current flow from any state back to idle.
	TriggerCancel Trigger = "CANCEL"

	TriggerStartPhoto    Trigger = "START_PHOTO"
	TriggerPhotoReceived Trigger = "PHOTO_RECEIVED"

	TriggerAccept      Trigger = "ACCEPT"
	TriggerReject      Trigger = "REJECT"
	TriggerSelectField Trigger = "SELECT_FIELD"
	TriggerSubmitValue Trigger = "SUBMIT_VALUE"

	TriggerStartManual Trigger = "START_MANUAL"
	// TriggerNext advances the manual chain after consuming one input.
	TriggerNext Trigger = "NEXT"
	// TriggerUseCurrent bypasses the manual date/time value sub-state,
	// filling the field from the clock.
	TriggerUseCurrent Trigger = "USE_CURRENT"
)

// String returns the string representation of the trigger.
func (t Trigger) String() string {
	return string(t)
}
