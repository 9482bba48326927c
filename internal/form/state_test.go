package form_test

import (
	"slices"
	"testing"

	"ecoleta/internal/client"
	"ecoleta/internal/form"
)

func TestToggleItemTwiceRestores(t *testing.T) {
	s := form.State{SelectedItems: []int64{2}}
	once := s.ToggleItem(5)
	if !slices.Equal(once.SelectedItems, []int64{2, 5}) {
		t.Fatalf("want [2 5], got %v", once.SelectedItems)
	}
	twice := once.ToggleItem(5)
	if !slices.Equal(twice.SelectedItems, []int64{2}) {
		t.Fatalf("want [2], got %v", twice.SelectedItems)
	}
	// earlier values are untouched
	if !slices.Equal(s.SelectedItems, []int64{2}) || !slices.Equal(once.SelectedItems, []int64{2, 5}) {
		t.Fatalf("transition mutated its input: s=%v once=%v", s.SelectedItems, once.SelectedItems)
	}
}

func TestSelectUFClearsCity(t *testing.T) {
	s := form.State{}.SelectUF("SP")
	s.Cities = []string{"Campinas"}
	s = s.SelectCity("Campinas")

	s = s.SelectUF("RJ")
	if s.UF != "RJ" || s.City != "" || s.Cities != nil {
		t.Fatalf("city not cleared: %+v", s)
	}

	s = s.SelectUF(form.NoUF)
	if s.UF != "" {
		t.Fatalf("placeholder should clear the state, got %q", s.UF)
	}
}

func TestClickMapAndAttachReplace(t *testing.T) {
	s := form.State{}.ClickMap(1, 2).ClickMap(-22.47, -44.46)
	if s.Position != (form.Position{Lat: -22.47, Lng: -44.46}) {
		t.Fatalf("unexpected position %+v", s.Position)
	}
	a := &client.Attachment{Name: "a.png"}
	b := &client.Attachment{Name: "b.png"}
	s = s.Attach(a).Attach(b)
	if s.Image != b {
		t.Fatalf("want last attachment, got %+v", s.Image)
	}
}

func TestWithField(t *testing.T) {
	s := form.State{}.WithField("name", "Eco").WithField("email", "a@b.com").WithField("whatsapp", "1").WithField("bogus", "x")
	if s.Name != "Eco" || s.Email != "a@b.com" || s.Whatsapp != "1" {
		t.Fatalf("unexpected state %+v", s)
	}
}

func TestPackageIsPure(t *testing.T) {
	s := form.State{}.
		WithField("name", "Eco Center").
		SelectUF("RJ").SelectCity("Resende").
		ToggleItem(1).ToggleItem(3).
		ClickMap(-22.47, -44.46)

	p1 := s.Package()
	p2 := s.Package()
	if p1.Name != p2.Name || !slices.Equal(p1.Items, p2.Items) {
		t.Fatal("packaging the same state twice differs")
	}
	if p1.Email != "" || p1.Whatsapp != "" {
		t.Fatalf("untouched inputs should be empty, got %+v", p1)
	}
	if p1.City != "Resende" || p1.UF != "RJ" || p1.Latitude != -22.47 || !slices.Equal(p1.Items, []int64{1, 3}) {
		t.Fatalf("unexpected submission %+v", p1)
	}

	p1.Items[0] = 99
	if s.SelectedItems[0] != 1 {
		t.Fatal("submission shares memory with state")
	}
}

func TestPhaseString(t *testing.T) {
	if form.Submitting.String() != "submitting" || form.Phase(42).String() != "unknown" {
		t.Fatal("unexpected phase names")
	}
}
