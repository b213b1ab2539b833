// Package panel models cart panel visibility: two states, closed and open,
// starting closed. The state travels in the request and is never stored.
package panel

import (
	"net/url"

	xhtml "golang.org/x/net/html"

	"github.com/dwikikusuma/storefront/internal/storefront/dom"
	"github.com/dwikikusuma/storefront/internal/storefront/layout"
)

const (
	QueryParam   = "cart"
	OpenValue    = "open"
	VisibleClass = "carrito-visible"
)

type State struct {
	Open bool
}

func (s State) Toggle() State {
	return State{Open: !s.Open}
}

func (s State) Set(open bool) State {
	return State{Open: open}
}

// FromQuery reads the state from a URL query; anything but cart=open is closed.
func FromQuery(q url.Values) State {
	return State{Open: q.Get(QueryParam) == OpenValue}
}

// Encode writes the state into q, dropping the parameter when closed.
func (s State) Encode(q url.Values) {
	if s.Open {
		q.Set(QueryParam, OpenValue)
		return
	}
	q.Del(QueryParam)
}

// Apply projects the state onto the cart panel and toggle control in doc.
// Missing elements are skipped.
func (s State) Apply(doc *xhtml.Node) {
	if aside := dom.ByID(doc, layout.PanelID); aside != nil {
		if s.Open {
			dom.AddClass(aside, VisibleClass)
			dom.SetAttr(aside, "aria-hidden", "false")
		} else {
			dom.RemoveClass(aside, VisibleClass)
			dom.SetAttr(aside, "aria-hidden", "true")
		}
	}
	if btn := dom.ByID(doc, layout.ToggleID); btn != nil {
		if s.Open {
			dom.SetAttr(btn, "aria-expanded", "true")
		} else {
			dom.SetAttr(btn, "aria-expanded", "false")
		}
	}
}
