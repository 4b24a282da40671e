// Package cart keeps each customer's shopping cart.
package cart

import (
	"sync"

	"crop-catch/internal/models"

	"github.com/shopspring/decimal"
)

type Line struct {
	Product  models.Product `json:"product"`
	Quantity int            `json:"quantity"`
}

func (l Line) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Store is one cart. Lines keep insertion order. Safe for concurrent use.
type Store struct {
	mu    sync.Mutex
	lines []Line
}

func NewStore(lines ...Line) *Store {
	s := &Store{}
	for _, l := range lines {
		if l.Quantity > 0 && l.Product.ID != "" {
			s.lines = append(s.lines, l)
		}
	}
	return s
}

// AddItem adds one unit of p.
func (s *Store) AddItem(p models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.index(p.ID); i >= 0 {
		s.lines[i].Quantity++
		return
	}
	s.lines = append(s.lines, Line{Product: p, Quantity: 1})
}

// UpdateQuantity sets the quantity of a line; qty <= 0 removes it.
func (s *Store) UpdateQuantity(productID string, qty int) {
	if qty <= 0 {
		s.RemoveItem(productID)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(productID); i >= 0 {
		s.lines[i].Quantity = qty
	}
}

func (s *Store) RemoveItem(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.index(productID); i >= 0 {
		s.lines = append(s.lines[:i], s.lines[i+1:]...)
	}
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = nil
}

// Discard takes the given lines out of the cart, subtracting quantities.
// Units added after the lines were read stay in the cart.
func (s *Store) Discard(lines []Line) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range lines {
		i := s.index(l.Product.ID)
		if i < 0 {
			continue
		}
		if s.lines[i].Quantity -= l.Quantity; s.lines[i].Quantity <= 0 {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
		}
	}
}

func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := decimal.Zero
	for _, l := range s.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Lines returns a copy of the current lines.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Line(nil), s.lines...)
}

func (s *Store) index(productID string) int {
	for i, l := range s.lines {
		if l.Product.ID == productID {
			return i
		}
	}
	return -1
}
