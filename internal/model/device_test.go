package model_test

import (
	"testing"

	"pmgraph/internal/model"
)

func TestDeviceListDisambiguatesDuplicates(t *testing.T) {
	run := model.NewTestRun(0, model.Stamp{Mode: model.ModeMem})
	p := run.AddPhase("suspend", "#88FF88")
	first := run.NewAction(p, "i2c", 10, "pci0", 1.0, 1.5)
	second := run.NewAction(p, "i2c", 11, "pci0", 2.0, 2.25)

	if first.Name != "i2c" || second.Name != "i2c[2]" {
		t.Fatalf("names = %q, %q; want i2c, i2c[2]", first.Name, second.Name)
	}
	if first.Base != "i2c" || second.Base != "i2c" {
		t.Fatalf("base names = %q, %q", first.Base, second.Base)
	}
	if p.Devices.Len() != 2 {
		t.Fatalf("len = %d, want 2", p.Devices.Len())
	}
	d, ok := p.Devices.Get("i2c[2]")
	if !ok || d.Start != 2.0 || d.Length() != 0.25 {
		t.Fatalf("second device not independently timed: %+v", d)
	}
	third := run.NewAction(p, "i2c", 12, "", 3, model.Unset)
	if third.Name != "i2c[3]" {
		t.Fatalf("third name = %q", third.Name)
	}
	if first.ID == second.ID || second.ID == third.ID {
		t.Fatal("device ids must be unique")
	}
}

func TestDeviceListOrderAndRemove(t *testing.T) {
	l := model.NewDeviceList()
	for _, n := range []string{"c", "a", "b"} {
		l.Add(&model.DeviceCallback{Name: n})
	}
	if got := l.Names(); len(got) != 3 || got[0] != "c" || got[1] != "a" || got[2] != "b" {
		t.Fatalf("insertion order lost: %v", got)
	}
	if !l.Remove("a") || l.Remove("a") {
		t.Fatal("remove should succeed exactly once")
	}
	if got := l.Names(); len(got) != 2 || got[0] != "c" || got[1] != "b" {
		t.Fatalf("order after remove: %v", got)
	}
}

func TestFirstUnreturnedIsEarliest(t *testing.T) {
	run := model.NewTestRun(0, model.Stamp{})
	p := run.AddPhase("resume", "#FFFF88")
	a := run.NewAction(p, "usb", 1, "", 1, model.Unset)
	b := run.NewAction(p, "usb", 2, "", 2, model.Unset)
	if got := p.Devices.FirstUnreturned("usb"); got != a {
		t.Fatalf("got %v, want first usb", got.Name)
	}
	a.End = 1.5
	if got := p.Devices.FirstUnreturned("usb"); got != b {
		t.Fatalf("got %v, want usb[2]", got.Name)
	}
	b.End = 2.5
	if p.Devices.FirstUnreturned("usb") != nil {
		t.Fatal("all returned")
	}
}

func TestSortedByStartIsStable(t *testing.T) {
	l := model.NewDeviceList()
	l.Add(&model.DeviceCallback{Name: "late", Start: 3})
	l.Add(&model.DeviceCallback{Name: "tie1", Start: 1})
	l.Add(&model.DeviceCallback{Name: "tie2", Start: 1})
	got := l.SortedByStart()
	if got[0].Name != "tie1" || got[1].Name != "tie2" || got[2].Name != "late" {
		t.Fatalf("unexpected order %s %s %s", got[0].Name, got[1].Name, got[2].Name)
	}
}

func TestEventColor(t *testing.T) {
	if model.EventColor("mutex_lock_try", "x") != "red" ||
		model.EventColor("mutex_lock_pass", "x") != "green" ||
		model.EventColor("mutex_unlock", "x") != "blue" {
		t.Fatal("mutex colors")
	}
	// len 4 -> 40, one 'e' -> 100, 't'=116 -> 116*20%256 = 16
	if got := model.EventColor("", "test"); got != "#286410" {
		t.Fatalf("name color = %s", got)
	}
	if model.EventColor("", "test") != model.EventColor("", "test") {
		t.Fatal("name color must be stable")
	}
}
