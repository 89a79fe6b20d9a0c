package typec

import (
	"testing"
	"time"
)

func TestPortStateDefaults(t *testing.T) {
	s := NewPortState()
	snap := s.Snapshot()

	if snap.Connection != ConnUnattached {
		t.Errorf("Connection = %v, want %v", snap.Connection, ConnUnattached)
	}
	if snap.Role != RoleSink {
		t.Errorf("Role = %v, want %v", snap.Role, RoleSink)
	}
	if snap.Orientation != OrientationNone {
		t.Errorf("Orientation = %v, want %v", snap.Orientation, OrientationNone)
	}
	if snap.Current != CurrentNone {
		t.Errorf("Current = %v, want %v", snap.Current, CurrentNone)
	}
	if snap.VBus {
		t.Error("VBus = true, want false")
	}
	if snap.Events != 0 {
		t.Errorf("Events = %d, want 0", snap.Events)
	}
	if snap.AttachedAt != nil {
		t.Errorf("AttachedAt = %v, want nil", snap.AttachedAt)
	}
}

func TestPortStateApply(t *testing.T) {
	now := time.Now().UTC()

	t.Run("attach records connection and time", func(t *testing.T) {
		s := NewPortState()
		snap := s.Apply(EventAttached, now)
		if snap.Connection != ConnAttached {
			t.Errorf("Connection = %v, want %v", snap.Connection, ConnAttached)
		}
		if snap.AttachedAt == nil || !snap.AttachedAt.Equal(now) {
			t.Errorf("AttachedAt = %v, want %v", snap.AttachedAt, now)
		}
		if snap.Events != 1 {
			t.Errorf("Events = %d, want 1", snap.Events)
		}
		if snap.LastEvent != "attached" {
			t.Errorf("LastEvent = %q, want %q", snap.LastEvent, "attached")
		}
	})

	t.Run("detach clears connection detail", func(t *testing.T) {
		s := NewPortState()
		s.Apply(EventAttached, now)
		s.SetOrientation(OrientationCC2)
		s.Apply(EventCurrent3000, now)

		snap := s.Apply(EventDetached, now)
		if snap.Connection != ConnUnattached {
			t.Errorf("Connection = %v, want %v", snap.Connection, ConnUnattached)
		}
		if snap.Orientation != OrientationNone {
			t.Errorf("Orientation = %v, want %v", snap.Orientation, OrientationNone)
		}
		if snap.Current != CurrentNone {
			t.Errorf("Current = %v, want %v", snap.Current, CurrentNone)
		}
		if snap.AttachedAt != nil {
			t.Errorf("AttachedAt = %v, want nil", snap.AttachedAt)
		}
	})

	t.Run("hard reset drops current but keeps connection", func(t *testing.T) {
		s := NewPortState()
		s.Apply(EventAttached, now)
		s.Apply(EventCurrent1500, now)

		snap := s.Apply(EventHardReset, now)
		if snap.Connection != ConnAttached {
			t.Errorf("Connection = %v, want %v", snap.Connection, ConnAttached)
		}
		if snap.Current != CurrentNone {
			t.Errorf("Current = %v, want %v", snap.Current, CurrentNone)
		}
	})

	t.Run("vbus tracks on and off", func(t *testing.T) {
		s := NewPortState()
		if snap := s.Apply(EventVBusOn, now); !snap.VBus {
			t.Error("VBus = false after EventVBusOn")
		}
		if snap := s.Apply(EventVBusOff, now); snap.VBus {
			t.Error("VBus = true after EventVBusOff")
		}
	})

	t.Run("current levels map to advertised values", func(t *testing.T) {
		tests := []struct {
			ev   Event
			want Current
		}{
			{EventCurrent500, CurrentDefault},
			{EventCurrent1500, Current1A5},
			{EventCurrent3000, Current3A0},
		}
		s := NewPortState()
		for _, tt := range tests {
			if snap := s.Apply(tt.ev, now); snap.Current != tt.want {
				t.Errorf("Apply(%v) Current = %v, want %v", tt.ev, snap.Current, tt.want)
			}
		}
	})

	t.Run("tick only counts", func(t *testing.T) {
		s := NewPortState()
		snap := s.Apply(EventTick, now)
		if snap.Connection != ConnUnattached || snap.VBus {
			t.Error("EventTick changed connection state")
		}
		if snap.Events != 1 {
			t.Errorf("Events = %d, want 1", snap.Events)
		}
	})
}

func TestPortStateReset(t *testing.T) {
	now := time.Now().UTC()
	s := NewPortState()
	s.Apply(EventAttached, now)
	s.Apply(EventVBusOn, now)
	s.SetOrientation(OrientationCC1)

	s.Reset()
	snap := s.Snapshot()
	if snap.Connection != ConnUnattached {
		t.Errorf("Connection = %v, want %v", snap.Connection, ConnUnattached)
	}
	if snap.Orientation != OrientationNone {
		t.Errorf("Orientation = %v, want %v", snap.Orientation, OrientationNone)
	}
	if snap.VBus {
		t.Error("VBus = true after Reset")
	}
	if snap.Events != 0 {
		t.Errorf("Events = %d, want 0", snap.Events)
	}
	if snap.LastEvent != "" {
		t.Errorf("LastEvent = %q, want empty", snap.LastEvent)
	}
}

func TestPortStateSetOrientation(t *testing.T) {
	s := NewPortState()
	s.SetOrientation(OrientationCC2)
	if snap := s.Snapshot(); snap.Orientation != OrientationCC2 {
		t.Errorf("Orientation = %v, want %v", snap.Orientation, OrientationCC2)
	}
}
