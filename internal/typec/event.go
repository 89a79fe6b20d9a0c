package typec

// Event stores a set of pending port events and returns them in priority
// order.
type Event uint16

// EventNone represents no pending event.
const EventNone Event = 0

// Events are listed in order of priority from highest to lowest. When
// several are pending in one set, the highest priority one is attended to
// first. Detach outranks attach so that a partner swap observed in a single
// batch resolves to the newest condition last.
const (
	EventHardReset   Event = 1 << iota // Hard reset signalling observed
	EventDetached                      // Port partner removed
	EventAttached                      // Port partner detected
	EventVBusOff                       // VBUS fell below the detection threshold
	EventVBusOn                        // VBUS above the detection threshold
	EventCurrent500                    // Source advertises default USB current
	EventCurrent1500                   // Source advertises 1.5 A
	EventCurrent3000                   // Source advertises 3 A
	EventActivity                      // CC message activity observed
	EventTick                          // Periodic service tick
)

// Pop returns the highest priority pending event and clears it from the set.
func (e *Event) Pop() Event {
	if *e == 0 {
		return EventNone
	}
	for r := Event(1); r != 0; r <<= 1 {
		if *e&r != 0 {
			*e &^= r
			return r
		}
	}
	return EventNone
}

// Add adds the events v to the set.
func (e *Event) Add(v Event) {
	*e |= v
}

// Has reports whether the event v is set, without clearing it.
func (e Event) Has(v Event) bool {
	return e&v != 0
}

func (e Event) String() string {
	switch e {
	case EventNone:
		return "none"
	case EventHardReset:
		return "hard_reset"
	case EventDetached:
		return "detached"
	case EventAttached:
		return "attached"
	case EventVBusOff:
		return "vbus_off"
	case EventVBusOn:
		return "vbus_on"
	case EventCurrent500:
		return "current_500ma"
	case EventCurrent1500:
		return "current_1500ma"
	case EventCurrent3000:
		return "current_3000ma"
	case EventActivity:
		return "activity"
	case EventTick:
		return "tick"
	default:
		return "invalid"
	}
}
