package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// LineItem is one distinct product in the cart. The JSON names are the
// persisted storage format and must stay stable across releases.
type LineItem struct {
	ID        string  `json:"id"`
	Name      string  `json:"nombre"`
	UnitPrice float64 `json:"precio"`
	Quantity  int     `json:"cantidad"`
}

func (it LineItem) Subtotal() float64 {
	return it.UnitPrice * float64(it.Quantity)
}

// UnmarshalJSON accepts ids and quantities written either as numbers or as
// strings, and repairs prices and quantities that fall outside their range.
func (it *LineItem) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID       any    `json:"id"`
		Name     string `json:"nombre"`
		Price    any    `json:"precio"`
		Quantity any    `json:"cantidad"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}

	id := NormalizeID(raw.ID)
	if id == "" {
		return fmt.Errorf("line item without id")
	}

	*it = LineItem{
		ID:        id,
		Name:      raw.Name,
		UnitPrice: SanitizePrice(toFloat(raw.Price)),
		Quantity:  ClampQuantity(toFloat(raw.Quantity)),
	}
	return nil
}

// NormalizeID converts an upstream identifier to its canonical text form.
// Catalog ids arrive as JSON numbers while form posts carry them as text;
// both 7 and "7" normalize to "7".
func NormalizeID(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(id)
	case json.Number:
		return normalizeNumeric(id.String())
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(id), 'f', -1, 32)
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	case int32:
		return strconv.FormatInt(int64(id), 10)
	case uint64:
		return strconv.FormatUint(id, 10)
	case fmt.Stringer:
		return strings.TrimSpace(id.String())
	default:
		return strings.TrimSpace(fmt.Sprint(id))
	}
}

func normalizeNumeric(s string) string {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// SanitizePrice maps negative or non-finite prices to 0.
func SanitizePrice(p float64) float64 {
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
		return 0
	}
	return p
}

// ClampQuantity truncates q to an integer no smaller than 1.
func ClampQuantity(q float64) int {
	if math.IsNaN(q) || q < 1 {
		return 1
	}
	if q > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(q)
}

// ParsePrice reads a user or wire supplied price; anything unparseable is 0.
func ParsePrice(raw string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return SanitizePrice(f)
}

// ParseQuantity reads a user supplied quantity; anything unparseable is 1.
func ParseQuantity(raw string) int {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		return ClampQuantity(float64(n))
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 1
	}
	return ClampQuantity(f)
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	case float64:
		return n
	case bool:
		if n {
			return 1
		}
		return 0
	default:
		return math.NaN()
	}
}

// Cart is an ordered set of line items, unique by normalized id.
// Insertion order is display order.
type Cart struct {
	items []LineItem
}

func NewCart() *Cart {
	return &Cart{}
}

// Add increments the quantity of an existing item or appends a new one with
// quantity 1. It returns the resulting line item.
func (c *Cart) Add(id, name string, price float64) LineItem {
	id = NormalizeID(id)
	if i := c.index(id); i >= 0 {
		c.items[i].Quantity++
		return c.items[i]
	}
	it := LineItem{ID: id, Name: name, UnitPrice: SanitizePrice(price), Quantity: 1}
	c.items = append(c.items, it)
	return it
}

// Remove deletes the item with id and reports whether one existed.
func (c *Cart) Remove(id string) bool {
	i := c.index(NormalizeID(id))
	if i < 0 {
		return false
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	return true
}

// SetQuantity sets the quantity of id to max(1, qty). Absent ids are a no-op.
func (c *Cart) SetQuantity(id string, qty int) bool {
	i := c.index(NormalizeID(id))
	if i < 0 {
		return false
	}
	c.items[i].Quantity = max(1, qty)
	return true
}

func (c *Cart) Clear() {
	c.items = nil
}

// Items returns a copy of the line items in display order.
func (c *Cart) Items() []LineItem {
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Len() int {
	return len(c.items)
}

// Total is recomputed from the items on every call.
func (c *Cart) Total() float64 {
	var total float64
	for _, it := range c.items {
		total += it.Subtotal()
	}
	return total
}

// Count is the sum of quantities.
func (c *Cart) Count() int {
	var n int
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) index(id string) int {
	for i := range c.items {
		if c.items[i].ID == id {
			return i
		}
	}
	return -1
}

// Encode serializes the line items as a JSON array. An empty cart encodes
// as [] rather than null.
func (c *Cart) Encode() ([]byte, error) {
	items := c.items
	if items == nil {
		items = []LineItem{}
	}
	return json.Marshal(items)
}

// Decode restores a cart from its persisted form. It fails only when data
// is not a JSON array; unreadable entries are skipped and counted in
// skipped. Duplicate ids are merged by summing quantities, keeping the first
// positive price, so the uniqueness invariant holds even for values written
// by older clients.
func Decode(data []byte) (c *Cart, skipped int, err error) {
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return NewCart(), 0, nil
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, 0, fmt.Errorf("decode cart: %w", err)
	}

	c = NewCart()
	for _, raw := range raws {
		var it LineItem
		if err := json.Unmarshal(raw, &it); err != nil {
			skipped++
			continue
		}
		if i := c.index(it.ID); i >= 0 {
			c.items[i].Quantity += it.Quantity
			if c.items[i].UnitPrice == 0 {
				c.items[i].UnitPrice = it.UnitPrice
			}
			continue
		}
		c.items = append(c.items, it)
	}
	return c, skipped, nil
}
