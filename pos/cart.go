package pos

import (
	"github.com/shopspring/decimal"
)

// Cart holds the in-progress order. It is a plain value machine with
// no I/O; nothing leaves the cart until checkout submits it.
//
// Cart is not safe for concurrent use. A register drives exactly one
// cart from one goroutine.
type Cart struct {
	items    []CartItem
	discount decimal.Decimal
}

// NewCart returns an empty cart with a zero discount.
func NewCart() *Cart {
	return &Cart{}
}

// Add puts one unit of the product into the cart. Adding a product
// already present bumps its quantity instead of creating a second
// line. The price and cost are snapshotted from the product at the
// moment of the first add.
func (c *Cart) Add(p Product) {
	for i := range c.items {
		if c.items[i].ProductID == p.ID {
			c.items[i].Quantity++
			return
		}
	}
	c.items = append(c.items, CartItem{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.PriceAmount(),
		CostPrice: p.CostAmount(),
		Category:  p.Category,
		Quantity:  1,
	})
}

// Remove drops the product's line entirely, whatever its quantity.
// Removing an absent product is a no-op.
func (c *Cart) Remove(productID string) {
	for i := range c.items {
		if c.items[i].ProductID == productID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

// AdjustQuantity changes a line's quantity by delta. The result is
// clamped to a minimum of 1; dropping a line is Remove's job, not an
// adjustment side effect. Absent products are ignored.
func (c *Cart) AdjustQuantity(productID string, delta int) {
	for i := range c.items {
		if c.items[i].ProductID == productID {
			q := c.items[i].Quantity + delta
			if q < 1 {
				q = 1
			}
			c.items[i].Quantity = q
			return
		}
	}
}

// SetQuantity sets a line's quantity directly, clamped to a minimum
// of 1. Absent products are ignored.
func (c *Cart) SetQuantity(productID string, quantity int) {
	for i := range c.items {
		if c.items[i].ProductID == productID {
			if quantity < 1 {
				quantity = 1
			}
			c.items[i].Quantity = quantity
			return
		}
	}
}

// SetItemPrice overrides a line's unit price for this order only; the
// catalog price is untouched. Negative prices are ignored.
func (c *Cart) SetItemPrice(productID string, price decimal.Decimal) {
	if price.IsNegative() {
		return
	}
	for i := range c.items {
		if c.items[i].ProductID == productID {
			c.items[i].Price = price
			return
		}
	}
}

// SetItemNote attaches a free-text note ("no ice", "extra sambal") to
// a line.
func (c *Cart) SetItemNote(productID string, note string) {
	for i := range c.items {
		if c.items[i].ProductID == productID {
			c.items[i].Note = note
			return
		}
	}
}

// SetDiscount sets the whole-order discount. Negative input is
// treated as zero.
func (c *Cart) SetDiscount(d decimal.Decimal) {
	if d.IsNegative() {
		d = decimal.Zero
	}
	c.discount = d
}

// Discount returns the whole-order discount.
func (c *Cart) Discount() decimal.Decimal { return c.discount }

// Clear empties the cart and resets the discount.
func (c *Cart) Clear() {
	c.items = nil
	c.discount = decimal.Zero
}

// Items returns a copy of the cart lines in insertion order.
func (c *Cart) Items() []CartItem {
	out := make([]CartItem, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int { return len(c.items) }

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool { return len(c.items) == 0 }

// Subtotal is the sum of every line total before discount.
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range c.items {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}

// Total is subtotal minus discount, clamped at zero. A discount larger
// than the subtotal produces a free order, never a negative one.
func (c *Cart) Total() decimal.Decimal {
	t := c.Subtotal().Sub(c.discount)
	if t.IsNegative() {
		return decimal.Zero
	}
	return t
}
