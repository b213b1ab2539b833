// Package layout makes sure every storefront page carries the shared header,
// cart panel and footer, whatever the page author wrote by hand.
package layout

import (
	"fmt"
	"html"
	"strings"

	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dwikikusuma/storefront/internal/storefront/dom"
)

const (
	PanelID      = "carrito-listado"
	ItemsID      = "carrito-items"
	TotalID      = "carrito-total"
	CounterID    = "contador-carrito"
	ToggleID     = "btn-toggle-carrito"
	CloseID      = "btn-cerrar-carrito"
	ClearID      = "vaciar-carrito"
	CheckoutID   = "checkout"
	ProductsID   = "contenedor-productos"
	ToastID      = "toast-container"
	ReturnField  = "return"
	BrandName    = "ECO.moda.infantil"
	nestedMarker = "/pages/"
)

// BasePath returns the relative prefix that resolves site-root assets from
// urlPath: "../" inside /pages/, "" elsewhere.
func BasePath(urlPath string) string {
	if strings.Contains(urlPath, nestedMarker) {
		return "../"
	}
	return ""
}

func HeaderMarkup(base string) string {
	b := html.EscapeString(base)
	return fmt.Sprintf(`<header>
<div class="header-inner">
<div class="brand">
<a href="%[1]sindex.html"><img src="%[1]sassets/img/logoprincipal.png" alt="Logo"/></a>
<h1>%[2]s</h1>
</div>
<nav aria-label="principal">
<ul>
<li><a href="%[1]sindex.html#productos">Productos</a></li>
<li><a href="%[1]spages/nosotros.html">Nosotros</a></li>
</ul>
</nav>
<div class="cart-area">
<form method="post" action="/cart/toggle" hx-post="/cart/toggle" hx-target="#%[3]s" hx-swap="outerHTML">
<input type="hidden" name="%[4]s" value="/"/>
%[5]s
</form>
</div>
</div>
</header>`, b, BrandName, PanelID, ReturnField, ToggleMarkup())
}

// ToggleMarkup is the header's cart button with its item counter.
func ToggleMarkup() string {
	return fmt.Sprintf(`<button id="%s" type="submit" aria-expanded="false" aria-controls="%s">🛒 <span id="%s">0</span></button>`,
		ToggleID, PanelID, CounterID)
}

func ToastContainerMarkup() string {
	return fmt.Sprintf(`<div id="%s" aria-live="polite"></div>`, ToastID)
}

func PanelMarkup() string {
	return fmt.Sprintf(`<aside id="%[1]s" class="carrito-hidden" aria-hidden="true">
<div class="carrito-header">
<h3>Tu carrito</h3>
<form method="post" action="/cart/close" hx-post="/cart/close" hx-target="#%[1]s" hx-swap="outerHTML">
<input type="hidden" name="%[2]s" value="/"/>
<button id="%[3]s" type="submit" aria-label="Cerrar carrito">✕</button>
</form>
</div>
<div id="%[4]s"></div>
<div class="carrito-footer">
<div class="carrito-total">Total: <strong id="%[5]s">$0.00</strong></div>
<div class="carrito-actions">
<form method="post" action="/cart/clear" hx-post="/cart/clear" hx-target="#%[1]s" hx-swap="outerHTML" hx-confirm="¿Vaciar el carrito?" hx-vals='{"confirm":"yes"}'>
<input type="hidden" name="%[2]s" value="/"/>
<button id="%[6]s" class="btn-danger" type="submit">Vaciar</button>
</form>
<button id="%[7]s" class="btn-primary" type="button">Finalizar compra</button>
</div>
</div>
</aside>`, PanelID, ReturnField, CloseID, ItemsID, TotalID, ClearID, CheckoutID)
}

func FooterMarkup() string {
	return fmt.Sprintf(`<footer><div class="footer-inner"><p>© 2025 %s. Todos los derechos reservados.</p></div></footer>`, BrandName)
}

// Ensure inserts whichever of header, cart panel, toast container and footer
// is missing from doc. It reports whether the tree changed; a second call on the same tree
// always returns false.
func Ensure(doc *xhtml.Node, base string) (bool, error) {
	body := dom.Body(doc)
	if body == nil {
		return false, fmt.Errorf("document has no body")
	}

	changed := false

	if dom.ByTag(body, atom.Header) == nil {
		nodes, err := dom.Fragment(HeaderMarkup(base))
		if err != nil {
			return false, fmt.Errorf("parse header: %w", err)
		}
		dom.Prepend(body, nodes)
		changed = true
	}

	if dom.ByID(body, PanelID) == nil {
		nodes, err := dom.Fragment(PanelMarkup())
		if err != nil {
			return false, fmt.Errorf("parse cart panel: %w", err)
		}
		dom.Append(body, nodes)
		changed = true
	}

	if dom.ByID(body, ToastID) == nil {
		nodes, err := dom.Fragment(ToastContainerMarkup())
		if err != nil {
			return false, fmt.Errorf("parse toast container: %w", err)
		}
		dom.Append(body, nodes)
		changed = true
	}

	if dom.ByTag(body, atom.Footer) == nil {
		nodes, err := dom.Fragment(FooterMarkup())
		if err != nil {
			return false, fmt.Errorf("parse footer: %w", err)
		}
		dom.Append(body, nodes)
		changed = true
	}

	return changed, nil
}

// Panel builds a detached cart panel node with default content.
func Panel() (*xhtml.Node, error) {
	return detached(PanelMarkup(), PanelID)
}

// ToggleButton builds a detached cart button, counter included.
func ToggleButton() (*xhtml.Node, error) {
	return detached(ToggleMarkup(), ToggleID)
}

func detached(markup, id string) (*xhtml.Node, error) {
	nodes, err := dom.Fragment(markup)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if n.Type == xhtml.ElementNode && dom.Attr(n, "id") == id {
			return n, nil
		}
	}
	return nil, fmt.Errorf("markup has no #%s", id)
}
