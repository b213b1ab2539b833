// Package view renders storefront fragments: product cards, cart rows, the
// clear confirmation and the transient toast.
package view

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"

	cartapp "github.com/dwikikusuma/storefront/internal/cart/app"
	"github.com/dwikikusuma/storefront/internal/catalog/domain"
	"github.com/dwikikusuma/storefront/internal/storefront/layout"
)

const CatalogErrorText = "Error al cargar productos."

const toastFadeMillis = 220

var e = templ.EscapeString[string]

// ProductCards renders one card per product. The add control carries the
// product id, name and price both as data attributes and as form fields.
func ProductCards(products []domain.Product, base, returnPath string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, p := range products {
			if err := productCard(w, p, base, returnPath); err != nil {
				return err
			}
		}
		return nil
	})
}

func productCard(w io.Writer, p domain.Product, base, returnPath string) error {
	title := e(p.Title)
	id := e(p.ID)
	price := strconv.FormatFloat(p.Price, 'f', -1, 64)
	detail := string(templ.URL(base + "pages/descripcion.html?id=" + url.QueryEscape(p.ID)))

	_, err := fmt.Fprintf(w, `<article class="producto-card">
<div class="producto-img-wrap"><img src="%s" alt="%s" class="producto-img"/></div>
<h3 class="producto-title">%s</h3>
<p class="producto-price">%s</p>
<div class="producto-actions">
<form method="post" action="/cart/add" hx-post="/cart/add" hx-target="#%s" hx-swap="outerHTML">
<input type="hidden" name="id" value="%s"/>
<input type="hidden" name="name" value="%s"/>
<input type="hidden" name="price" value="%s"/>
<input type="hidden" name="%s" value="%s"/>
<button class="btn-agregar" type="submit" data-id="%s" data-nombre="%s" data-precio="%s">Añadir al Carrito</button>
</form>
<a class="btn-detalle" href="%s">Ver</a>
</div>
</article>
`,
		e(string(templ.URL(p.Image))), title,
		title,
		e(FormatMoney(p.Price)),
		layout.PanelID,
		id, title, price,
		layout.ReturnField, e(returnPath),
		id, title, price,
		e(detail),
	)
	return err
}

func CatalogError() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<p>"+e(CatalogErrorText)+"</p>")
		return err
	})
}

// CartItems renders the empty placeholder or one row per line item.
func CartItems(snap cartapp.Snapshot, returnPath string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if snap.Empty() {
			_, err := io.WriteString(w, `<p class="carrito-vacio">Tu carrito está vacío.</p>`)
			return err
		}
		for _, it := range snap.Items {
			id := e(it.ID)
			ret := e(returnPath)
			_, err := fmt.Fprintf(w, `<div class="cart-item" data-id="%[1]s">
<div class="cart-item-left">
<div class="cart-item-nombre">%[2]s</div>
<form class="cart-item-controls" method="post" action="/cart/quantity" hx-post="/cart/quantity" hx-trigger="input changed delay:300ms" hx-target="#%[6]s" hx-swap="outerHTML">
<input type="hidden" name="id" value="%[1]s"/>
<input type="hidden" name="%[7]s" value="%[5]s"/>
Cantidad: <input class="cantidad-input" type="number" name="quantity" min="1" value="%[3]d" data-id="%[1]s"/>
<noscript><button type="submit">Actualizar</button></noscript>
</form>
</div>
<div class="cart-item-right">
<div class="cart-item-subtotal">%[4]s</div>
<form method="post" action="/cart/remove" hx-post="/cart/remove" hx-target="#%[6]s" hx-swap="outerHTML">
<input type="hidden" name="id" value="%[1]s"/>
<input type="hidden" name="%[7]s" value="%[5]s"/>
<button class="btn-eliminar" type="submit" data-id="%[1]s">Eliminar</button>
</form>
</div>
</div>
`, id, e(it.Name), it.Quantity, e(FormatMoney(it.Subtotal())), ret, layout.PanelID, layout.ReturnField)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// ConfirmClear asks the shopper to confirm emptying the cart.
func ConfirmClear(returnPath, cancelHref string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<div class="carrito-confirm" role="alertdialog" aria-label="Confirmar">
<p>¿Vaciar el carrito?</p>
<form method="post" action="/cart/clear">
<input type="hidden" name="confirm" value="yes"/>
<input type="hidden" name="%s" value="%s"/>
<button class="btn-danger" type="submit">Vaciar</button>
<a class="btn-secondary" href="%s">Cancelar</a>
</form>
</div>`, layout.ReturnField, e(returnPath), e(string(templ.URL(cancelHref))))
		return err
	})
}

// Toast renders a notification that fades after d and is removed once the
// fade ends when htmx swaps it in. Full page renders carry at most one toast.
func Toast(notice cartapp.Notice, d time.Duration) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if notice.Message == "" {
			return nil
		}
		fade := d.Milliseconds() + toastFadeMillis
		_, err := fmt.Fprintf(w,
			`<div class="toast-message" role="status" data-duration="%d" style="animation: toast-fade %dms ease forwards" hx-on::load="setTimeout(() => this.remove(), %d)">%s</div>`,
			d.Milliseconds(), fade, fade, e(notice.Message))
		return err
	})
}

// String renders c into a string.
func String(ctx context.Context, c templ.Component) (string, error) {
	var buf strings.Builder
	if err := c.Render(ctx, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
