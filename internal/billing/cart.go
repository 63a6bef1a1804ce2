// Package billing turns carts of packaged stock into priced, committed
// invoices.
package billing

import (
	"github.com/shopspring/decimal"

	"medstock/m/domain"
)

// Line is one cart entry. PacksPerCarton and PackPrice are captured when
// the line is first added so a quote stays stable while the cart is edited.
type Line struct {
	StockID        string
	Name           string
	Packaging      string
	CartonsOrdered int64
	PacksPerCarton int64
	PackPrice      decimal.Decimal
}

// LineTotal is the money value of a line, rounded once.
func LineTotal(l Line) decimal.Decimal {
	return domain.RoundMoney(l.PackPrice.Mul(decimal.NewFromInt(l.PacksPerCarton)).Mul(decimal.NewFromInt(l.CartonsOrdered)))
}

// Cart is a short-lived order under construction. It is created for one
// submission and discarded afterwards; it is never persisted.
//
// Availability checks here are advisory and read the quantity of the item
// passed in. The Guard re-checks at commit.
type Cart struct {
	order []string
	lines map[string]*Line
}

func NewCart() *Cart {
	return &Cart{lines: make(map[string]*Line)}
}

// AddLine adds delta cartons of item, creating the line if needed. The
// whole call is rejected if the result would exceed the cartons on hand.
func (c *Cart) AddLine(item domain.StockItem, delta int64) error {
	if delta < 1 {
		return domain.NewValidationError("cartonsOrdered", "must be greater than or equal to 1")
	}
	current := int64(0)
	if l, ok := c.lines[item.ID]; ok {
		current = l.CartonsOrdered
	}
	want := current + delta
	if want > item.QuantityInCartons {
		return &domain.InsufficientStockError{StockID: item.ID, Name: item.Name, Requested: want, Available: item.QuantityInCartons}
	}
	c.put(item, want)
	return nil
}

// SetQuantity sets the line for item to n cartons. n <= 0 removes it.
func (c *Cart) SetQuantity(item domain.StockItem, n int64) error {
	if n <= 0 {
		c.RemoveLine(item.ID)
		return nil
	}
	if n > item.QuantityInCartons {
		return &domain.InsufficientStockError{StockID: item.ID, Name: item.Name, Requested: n, Available: item.QuantityInCartons}
	}
	c.put(item, n)
	return nil
}

func (c *Cart) put(item domain.StockItem, cartons int64) {
	if l, ok := c.lines[item.ID]; ok {
		l.CartonsOrdered = cartons
		return
	}
	c.order = append(c.order, item.ID)
	c.lines[item.ID] = &Line{
		StockID:        item.ID,
		Name:           item.Name,
		Packaging:      item.Packaging(),
		CartonsOrdered: cartons,
		PacksPerCarton: item.PacksPerCarton,
		PackPrice:      item.PackSellingPrice,
	}
}

func (c *Cart) RemoveLine(stockID string) {
	if _, ok := c.lines[stockID]; !ok {
		return
	}
	delete(c.lines, stockID)
	for i, id := range c.order {
		if id == stockID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Clear drops every line, as when a sale is cancelled.
func (c *Cart) Clear() {
	c.order = nil
	clear(c.lines)
}

func (c *Cart) Line(stockID string) (Line, bool) {
	l, ok := c.lines[stockID]
	if !ok {
		return Line{}, false
	}
	return *l, true
}

// Lines returns copies of the lines in the order they were first added.
func (c *Cart) Lines() []Line {
	out := make([]Line, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.lines[id])
	}
	return out
}

func (c *Cart) Len() int {
	return len(c.order)
}

// Subtotal sums the rounded line totals. Quote prices invoices from it.
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, id := range c.order {
		sum = sum.Add(LineTotal(*c.lines[id]))
	}
	return domain.RoundMoney(sum)
}
