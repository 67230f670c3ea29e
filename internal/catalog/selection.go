package catalog

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-resto/internal/pricing"
)

// ErrRequiredGroup reports a mandatory modifier group without enough picks.
var ErrRequiredGroup = errors.New("catalog: required modifier group")

// Selection tracks the options picked for one product, keyed by group id.
type Selection struct {
	groups []ModifierGroup
	picked map[int64]map[int64]struct{}
}

// NewSelection starts an empty selection over the product's groups.
func NewSelection(groups []ModifierGroup) *Selection {
	return &Selection{groups: groups, picked: make(map[int64]map[int64]struct{}, len(groups))}
}

// Toggle applies a click on an option and reports whether the selection changed.
// Exclusive groups replace the current pick; other groups toggle until max is reached.
func (s *Selection) Toggle(groupID, optionID int64) bool {
	group, ok := s.group(groupID)
	if !ok {
		return false
	}
	opt, ok := findOption(group, optionID)
	if !ok || !opt.IsAvailable {
		return false
	}
	picks := s.picked[groupID]
	if picks == nil {
		picks = make(map[int64]struct{})
		s.picked[groupID] = picks
	}
	if group.Exclusive() {
		if _, already := picks[optionID]; already && len(picks) == 1 {
			return false
		}
		s.picked[groupID] = map[int64]struct{}{optionID: {}}
		return true
	}
	if _, already := picks[optionID]; already {
		delete(picks, optionID)
		return true
	}
	if group.MaxSelection > 0 && len(picks) >= group.MaxSelection {
		return false
	}
	picks[optionID] = struct{}{}
	return true
}

// Picked reports whether an option is currently selected.
func (s *Selection) Picked(groupID, optionID int64) bool {
	_, ok := s.picked[groupID][optionID]
	return ok
}

// Validate returns ErrRequiredGroup for the first group below its minimum.
func (s *Selection) Validate() error {
	for _, g := range s.groups {
		if g.MinSelection > 0 && len(s.picked[g.ID]) < g.MinSelection {
			return fmt.Errorf("Selecciona: %s: %w", g.Name, ErrRequiredGroup)
		}
	}
	return nil
}

// Options lists the picked options in group order, then option order.
func (s *Selection) Options() []pricing.Option {
	out := []pricing.Option{}
	for _, g := range s.groups {
		picks := s.picked[g.ID]
		if len(picks) == 0 {
			continue
		}
		for _, opt := range g.Options {
			if _, ok := picks[opt.ID]; ok {
				out = append(out, pricing.Option{Name: opt.Name, Price: opt.Price})
			}
		}
	}
	return out
}

// UnitPrice is base plus every picked option price.
func (s *Selection) UnitPrice(base decimal.Decimal) decimal.Decimal {
	return pricing.UnitPrice(base, s.Options())
}

// Pick is an option chosen by id in a request body.
type Pick struct {
	GroupID  int64 `json:"group_id"`
	OptionID int64 `json:"option_id"`
}

// Resolve replays picks against the product's groups and validates the result.
// Unknown or unavailable options and picks past a group's maximum are rejected.
func Resolve(p Product, picks []Pick) (*Selection, error) {
	sel := NewSelection(p.Modifiers)
	for _, pk := range picks {
		group, ok := sel.group(pk.GroupID)
		if !ok {
			return nil, fmt.Errorf("grupo %d no pertenece al producto: %w", pk.GroupID, ErrInvalidInput)
		}
		opt, ok := findOption(group, pk.OptionID)
		if !ok {
			return nil, fmt.Errorf("opción %d no pertenece a %s: %w", pk.OptionID, group.Name, ErrInvalidInput)
		}
		if !opt.IsAvailable {
			return nil, fmt.Errorf("%s no está disponible: %w", opt.Name, ErrInvalidInput)
		}
		if sel.Picked(pk.GroupID, pk.OptionID) {
			continue
		}
		if !sel.Toggle(pk.GroupID, pk.OptionID) {
			return nil, fmt.Errorf("máximo %d en %s: %w", group.MaxSelection, group.Name, ErrInvalidInput)
		}
	}
	if err := sel.Validate(); err != nil {
		return nil, err
	}
	return sel, nil
}

func (s *Selection) group(id int64) (ModifierGroup, bool) {
	for _, g := range s.groups {
		if g.ID == id {
			return g, true
		}
	}
	return ModifierGroup{}, false
}

func findOption(g ModifierGroup, id int64) (ModifierOption, bool) {
	for _, o := range g.Options {
		if o.ID == id {
			return o, true
		}
	}
	return ModifierOption{}, false
}
