// Package cart merges the line items a shopper collects before checkout.
// The storefront keeps the cart client-side; the server only ever sees a
// snapshot, which it normalises with FromItems.
package cart

import (
	"math"

	"everesthemp-backend/internal/pricing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxQuantity is the most units of one line checkout accepts.
const MaxQuantity = 99

type Item struct {
	ProductID primitive.ObjectID `json:"productId"`
	Name      string             `json:"name"`
	Price     int64              `json:"price"`
	Image     string             `json:"image"`
	Color     string             `json:"color"`
	Size      string             `json:"size"`
	Quantity  int                `json:"quantity"`
}

// Key identifies a line. Two items with the same key are one line.
type Key struct {
	ProductID primitive.ObjectID
	Size      string
	Color     string
}

func (it Item) Key() Key {
	return Key{ProductID: it.ProductID, Size: it.Size, Color: it.Color}
}

type Cart struct {
	items []Item
}

func New() *Cart {
	return &Cart{}
}

// FromItems rebuilds a cart from a snapshot, merging duplicate keys and
// raising non-positive quantities to 1.
func FromItems(items []Item) *Cart {
	c := New()
	for _, it := range items {
		if it.Quantity < 1 {
			it.Quantity = 1
		}
		c.Add(it)
	}
	return c
}

func (c *Cart) index(k Key) int {
	for i := range c.items {
		if c.items[i].Key() == k {
			return i
		}
	}
	return -1
}

// Add increments an existing line with the same key or appends a new one.
// Descriptive fields of an existing line are kept.
func (c *Cart) Add(it Item) {
	if i := c.index(it.Key()); i >= 0 {
		c.items[i].Quantity = addQuantity(c.items[i].Quantity, it.Quantity)
		return
	}
	c.items = append(c.items, it)
}

// addQuantity saturates instead of wrapping.
func addQuantity(a, b int) int {
	if b > 0 && a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}

func (c *Cart) Remove(k Key) {
	if i := c.index(k); i >= 0 {
		c.items = append(c.items[:i], c.items[i+1:]...)
	}
}

// SetQuantity never drops a line; use Remove for that.
func (c *Cart) SetQuantity(k Key, qty int) {
	if qty < 1 {
		qty = 1
	}
	if i := c.index(k); i >= 0 {
		c.items[i].Quantity = qty
	}
}

func (c *Cart) Clear() {
	c.items = nil
}

// Items returns a copy of the lines in insertion order.
func (c *Cart) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Len() int {
	return len(c.items)
}

func (c *Cart) Count() int {
	n := 0
	for _, it := range c.items {
		n = addQuantity(n, it.Quantity)
	}
	return n
}

func (c *Cart) Lines() []pricing.Line {
	lines := make([]pricing.Line, len(c.items))
	for i, it := range c.items {
		lines[i] = pricing.Line{Price: it.Price, Quantity: it.Quantity}
	}
	return lines
}
