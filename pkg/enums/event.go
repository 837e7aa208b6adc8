package enums

// Event names delivered over the realtime transport. Payload shapes are
// owned by the emitting service.
type Event string

const (
	EventEmergencyAlert       Event = "emergencyAlert"
	EventDonorPledged         Event = "donorPledged"
	EventDonorAccepted        Event = "donorAccepted"
	EventDonorLocationUpdated Event = "donorLocationUpdated"
	EventDonorNearHospital    Event = "donorNearHospital"
	EventChatMessage          Event = "chatMessage"
	EventRequestStatusChanged Event = "requestStatusChanged"
)

// String implements fmt.Stringer.
func (e Event) String() string {
	return string(e)
}
