package cart

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/imrishuroy/go-pos-orderflow/internal/pricing"
)

var (
	ErrLineNotFound    = errors.New("cart line not found")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// Session is the cart of one terminal for one table. It is owned by the caller and is not safe for concurrent use.
type Session struct {
	TableID string
	lines   []*pricing.LineItem
}

// NewSession returns an empty cart for a table.
func NewSession(tableID string) *Session {
	return &Session{TableID: tableID}
}

// Load builds a session from lines received from a client. Lines without an id get one.
func Load(tableID string, lines []*pricing.LineItem) (*Session, error) {
	s := NewSession(tableID)
	for i, l := range lines {
		if l == nil {
			continue
		}
		if err := s.Add(l); err != nil {
			return nil, fmt.Errorf("line %d: %w", i, err)
		}
	}
	return s, nil
}

// Add appends a root line to the cart.
func (s *Session) Add(line *pricing.LineItem) error {
	if line == nil || line.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if err := pricing.CheckDepth(line); err != nil {
		return err
	}
	if line.ID == "" {
		line.ID = uuid.NewString()
	}
	setLevel(line, 0)
	s.lines = append(s.lines, line)
	return nil
}

// AddModifier attaches a modifier under group on the line with parentID, which may itself be a modifier.
func (s *Session) AddModifier(parentID string, group pricing.ModifierGroup, mod *pricing.LineItem) error {
	if mod == nil || mod.Quantity < 1 {
		return ErrInvalidQuantity
	}
	parent := s.find(parentID)
	if parent == nil {
		return ErrLineNotFound
	}
	// the modifier brings its own nested selections along
	if err := pricing.CheckDepthAt(mod, parent.Level+1); err != nil {
		return err
	}
	if mod.ID == "" {
		mod.ID = uuid.NewString()
	}
	setLevel(mod, parent.Level+1)
	for i := range parent.SelectedModifierGroups {
		if parent.SelectedModifierGroups[i].Group.ID == group.ID {
			parent.SelectedModifierGroups[i].SelectedModifiers = append(parent.SelectedModifierGroups[i].SelectedModifiers, mod)
			return nil
		}
	}
	parent.SelectedModifierGroups = append(parent.SelectedModifierGroups, pricing.ModifierGroupSelection{
		Group:             group,
		SelectedModifiers: []*pricing.LineItem{mod},
	})
	return nil
}

func setLevel(l *pricing.LineItem, level int) {
	l.Level = level
	for _, g := range l.SelectedModifierGroups {
		for _, m := range g.SelectedModifiers {
			if m != nil {
				setLevel(m, level+1)
			}
		}
	}
}

// Remove deletes a root line or a modifier, with everything nested under it.
func (s *Session) Remove(id string) error {
	for i, l := range s.lines {
		if l.ID == id {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			return nil
		}
	}
	for _, l := range s.lines {
		if removeModifier(l, id) {
			return nil
		}
	}
	return ErrLineNotFound
}

func removeModifier(parent *pricing.LineItem, id string) bool {
	for gi := range parent.SelectedModifierGroups {
		mods := parent.SelectedModifierGroups[gi].SelectedModifiers
		for mi, m := range mods {
			if m == nil {
				continue
			}
			if m.ID == id {
				parent.SelectedModifierGroups[gi].SelectedModifiers = append(mods[:mi], mods[mi+1:]...)
				return true
			}
			if removeModifier(m, id) {
				return true
			}
		}
	}
	return false
}

// SetQuantity changes the quantity of a line or modifier.
func (s *Session) SetQuantity(id string, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	l := s.find(id)
	if l == nil {
		return ErrLineNotFound
	}
	l.Quantity = qty
	return nil
}

// AssignSeat moves root lines to a seat. An empty seat clears the assignment.
func (s *Session) AssignSeat(seat string, ids ...string) error {
	for _, id := range ids {
		l := s.root(id)
		if l == nil {
			return fmt.Errorf("%w: %s", ErrLineNotFound, id)
		}
		l.Seat = seat
	}
	return nil
}

// ToggleHold flips the hold flag of a root line. Held lines are not fired to the kitchen.
func (s *Session) ToggleHold(id string) error {
	l := s.root(id)
	if l == nil {
		return ErrLineNotFound
	}
	l.Held = !l.Held
	return nil
}

// ToggleSelect flips the selection flag of a root line.
func (s *Session) ToggleSelect(id string) error {
	l := s.root(id)
	if l == nil {
		return ErrLineNotFound
	}
	l.Selected = !l.Selected
	return nil
}

// Selected returns the selected root lines.
func (s *Session) Selected() []*pricing.LineItem {
	var out []*pricing.LineItem
	for _, l := range s.lines {
		if l.Selected {
			out = append(out, l)
		}
	}
	return out
}

// Items returns the root lines in the order they were added.
func (s *Session) Items() []*pricing.LineItem {
	out := make([]*pricing.LineItem, len(s.lines))
	copy(out, s.lines)
	return out
}

// Total prices every root line.
func (s *Session) Total() decimal.Decimal {
	return pricing.CartTotal(s.lines)
}

// SeatTotals prices the cart per seat. Lines without a seat are keyed by "".
func (s *Session) SeatTotals() map[string]decimal.Decimal {
	out := map[string]decimal.Decimal{}
	for _, l := range s.lines {
		out[l.Seat] = out[l.Seat].Add(pricing.PriceOfCartLineItem(l))
	}
	return out
}

// Seats lists the seat labels in use, sorted.
func (s *Session) Seats() []string {
	seen := map[string]bool{}
	var out []string
	for _, l := range s.lines {
		if l.Seat != "" && !seen[l.Seat] {
			seen[l.Seat] = true
			out = append(out, l.Seat)
		}
	}
	sort.Strings(out)
	return out
}

// Clear empties the cart, as after a successful checkout.
func (s *Session) Clear() {
	s.lines = nil
}

// Len is the number of root lines.
func (s *Session) Len() int { return len(s.lines) }

func (s *Session) root(id string) *pricing.LineItem {
	for _, l := range s.lines {
		if l.ID == id {
			return l
		}
	}
	return nil
}

func (s *Session) find(id string) *pricing.LineItem {
	for _, l := range s.lines {
		if found := findIn(l, id); found != nil {
			return found
		}
	}
	return nil
}

func findIn(l *pricing.LineItem, id string) *pricing.LineItem {
	if l == nil {
		return nil
	}
	if l.ID == id {
		return l
	}
	for _, g := range l.SelectedModifierGroups {
		for _, m := range g.SelectedModifiers {
			if found := findIn(m, id); found != nil {
				return found
			}
		}
	}
	return nil
}
