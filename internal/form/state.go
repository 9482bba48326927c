// Package form models the point submission form: an immutable State with
// pure transitions, and a Form controller that runs the side effects.
package form

import (
	"slices"
	"strings"

	"ecoleta/internal/client"
	"ecoleta/internal/domain"
)

type Phase int

const (
	Idle Phase = iota
	Populating
	Editing
	Submitting
	Submitted
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Populating:
		return "populating"
	case Editing:
		return "editing"
	case Submitting:
		return "submitting"
	case Submitted:
		return "submitted"
	}
	return "unknown"
}

// NoUF is the placeholder value of the state selector.
const NoUF = "0"

type Position struct {
	Lat float64
	Lng float64
}

// State is never mutated in place; every transition returns a copy.
type State struct {
	Phase Phase

	// reference data
	Items  []domain.Item
	UFs    []string
	Cities []string

	Name     string
	Email    string
	Whatsapp string

	SelectedItems []int64
	UF            string
	City          string
	Position      Position
	Image         *client.Attachment

	Err     error
	Created *domain.PointDetail
}

// WithField sets one of the text inputs: name, email or whatsapp.
// Unknown names leave the state unchanged.
func (s State) WithField(name, value string) State {
	switch name {
	case "name":
		s.Name = value
	case "email":
		s.Email = value
	case "whatsapp":
		s.Whatsapp = value
	}
	return s
}

// ToggleItem removes id when selected and appends it otherwise.
func (s State) ToggleItem(id int64) State {
	if i := slices.Index(s.SelectedItems, id); i >= 0 {
		s.SelectedItems = slices.Delete(slices.Clone(s.SelectedItems), i, i+1)
		return s
	}
	s.SelectedItems = append(slices.Clone(s.SelectedItems), id)
	return s
}

// SelectUF picks a state and drops the city chosen under the previous one.
func (s State) SelectUF(uf string) State {
	uf = strings.TrimSpace(uf)
	if uf == NoUF {
		uf = ""
	}
	s.UF = uf
	s.City = ""
	s.Cities = nil
	return s
}

func (s State) SelectCity(city string) State {
	s.City = city
	return s
}

// ClickMap replaces the single selected position.
func (s State) ClickMap(lat, lng float64) State {
	s.Position = Position{Lat: lat, Lng: lng}
	return s
}

// Attach replaces any previous attachment.
func (s State) Attach(a *client.Attachment) State {
	s.Image = a
	return s
}

// Package builds the submission from the state alone. Untouched text inputs
// are sent as empty strings.
func (s State) Package() client.Submission {
	return client.Submission{
		Name:      s.Name,
		Email:     s.Email,
		Whatsapp:  s.Whatsapp,
		City:      s.City,
		UF:        s.UF,
		Latitude:  s.Position.Lat,
		Longitude: s.Position.Lng,
		Items:     slices.Clone(s.SelectedItems),
		Image:     s.Image,
	}
}
