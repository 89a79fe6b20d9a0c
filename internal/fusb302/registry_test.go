package fusb302

import (
	"errors"
	"testing"
)

func TestActiveRegistryPublish(t *testing.T) {
	reg := NewActiveRegistry()
	if reg.Count() != 0 {
		t.Fatalf("Count() = %d, want 0", reg.Count())
	}

	first := newChip()
	if err := reg.Publish(first); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if active, ok := reg.Active(); !ok || active != first {
		t.Fatal("Active() does not return the published chip")
	}
	if reg.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", reg.Count())
	}

	if err := reg.Publish(newChip()); !errors.Is(err, ErrPortActive) {
		t.Fatalf("second Publish() error = %v, want ErrPortActive", err)
	}
	if active, _ := reg.Active(); active != first {
		t.Fatal("rejected publish overwrote the slot")
	}
}

func TestActiveRegistryWithdraw(t *testing.T) {
	reg := NewActiveRegistry()
	chip := newChip()
	if err := reg.Publish(chip); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	reg.Withdraw(newChip())
	if reg.Count() != 1 {
		t.Fatal("Withdraw() of a foreign chip cleared the slot")
	}

	reg.Withdraw(chip)
	if reg.Count() != 0 {
		t.Fatal("Withdraw() left the slot occupied")
	}
	if err := reg.Publish(newChip()); err != nil {
		t.Fatalf("Publish() after withdraw error = %v", err)
	}
}
