// Package page assembles a storefront document: shared layout, product
// cards, cart panel contents, panel visibility and pending notifications.
package page

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/a-h/templ"
	xhtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	cartapp "github.com/dwikikusuma/storefront/internal/cart/app"
	"github.com/dwikikusuma/storefront/internal/catalog/domain"
	"github.com/dwikikusuma/storefront/internal/storefront/dom"
	"github.com/dwikikusuma/storefront/internal/storefront/layout"
	"github.com/dwikikusuma/storefront/internal/storefront/panel"
	"github.com/dwikikusuma/storefront/internal/storefront/view"
)

type ProductLister interface {
	ListProducts(ctx context.Context, limit int) ([]domain.Product, error)
}

// State is everything a single render needs besides the page source.
type State struct {
	// Path is the request path; it decides the relative base for links.
	Path string
	// Return is where cart forms send the shopper back to.
	Return       string
	Cart         cartapp.Snapshot
	Panel        panel.State
	Notice       cartapp.Notice
	ConfirmClear bool
}

type Renderer struct {
	catalog       ProductLister
	limit         int
	toastDuration time.Duration
	log           *slog.Logger
}

func NewRenderer(catalog ProductLister, limit int, toastDuration time.Duration, log *slog.Logger) *Renderer {
	if toastDuration <= 0 {
		toastDuration = 2 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Renderer{catalog: catalog, limit: limit, toastDuration: toastDuration, log: log}
}

// Document parses src and projects st onto it.
func (r *Renderer) Document(ctx context.Context, src []byte, st State) (*xhtml.Node, error) {
	doc, err := dom.Parse(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	base := layout.BasePath(st.Path)
	if _, err := layout.Ensure(doc, base); err != nil {
		return nil, err
	}

	if container := dom.ByID(doc, layout.ProductsID); container != nil {
		if err := r.fillProducts(ctx, container, base, st.Return); err != nil {
			return nil, err
		}
	}

	if err := r.project(ctx, doc, st); err != nil {
		return nil, err
	}

	if st.Notice.Message != "" {
		// layout.Ensure guarantees the container.
		toasts := dom.ByID(doc, layout.ToastID)
		if err := appendComponent(ctx, toasts, view.Toast(st.Notice, r.toastDuration)); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// Panel renders the cart panel alone, followed by out-of-band updates for
// the header's cart button (counter and expanded flag) and the toast
// container. This is the partial answer to HTMX-driven cart actions.
func (r *Renderer) Panel(ctx context.Context, st State) (templ.Component, error) {
	aside, err := layout.Panel()
	if err != nil {
		return nil, err
	}
	toggle, err := layout.ToggleButton()
	if err != nil {
		return nil, err
	}
	root := &xhtml.Node{Type: xhtml.ElementNode, Data: "body", DataAtom: atom.Body}
	root.AppendChild(aside)
	root.AppendChild(toggle)
	dom.SetAttr(toggle, "hx-swap-oob", "true")

	if err := r.project(ctx, root, st); err != nil {
		return nil, err
	}

	toast, err := view.String(ctx, view.Toast(st.Notice, r.toastDuration))
	if err != nil {
		return nil, err
	}

	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := dom.Render(w, aside); err != nil {
			return err
		}
		if err := dom.Render(w, toggle); err != nil {
			return err
		}
		if toast == "" {
			return nil
		}
		_, err := fmt.Fprintf(w, `<div id="%s" hx-swap-oob="innerHTML">%s</div>`, layout.ToastID, toast)
		return err
	}), nil
}

func (r *Renderer) fillProducts(ctx context.Context, container *xhtml.Node, base, ret string) error {
	products, err := r.catalog.ListProducts(ctx, r.limit)
	if err != nil {
		r.log.Debug("rendering catalog error", slog.Any("err", err))
		return setComponent(ctx, container, view.CatalogError())
	}
	return setComponent(ctx, container, view.ProductCards(products, base, ret))
}

// project paints cart contents, totals, return targets and panel state
// under root. It never changes the cart.
func (r *Renderer) project(ctx context.Context, root *xhtml.Node, st State) error {
	if items := dom.ByID(root, layout.ItemsID); items != nil {
		if err := setComponent(ctx, items, view.CartItems(st.Cart, st.Return)); err != nil {
			return err
		}
	}
	if total := dom.ByID(root, layout.TotalID); total != nil {
		dom.SetText(total, view.FormatMoney(st.Cart.Total))
	}
	if counter := dom.ByID(root, layout.CounterID); counter != nil {
		dom.SetText(counter, strconv.Itoa(st.Cart.Count))
	}

	for _, in := range dom.FindAll(root, isReturnField) {
		dom.SetAttr(in, "value", st.Return)
	}

	state := st.Panel
	if st.ConfirmClear {
		aside := dom.ByID(root, layout.PanelID)
		if aside != nil {
			if err := appendComponent(ctx, aside, view.ConfirmClear(st.Return, st.Return)); err != nil {
				return err
			}
		}
		state = state.Set(true)
	}
	state.Apply(root)
	return nil
}

func isReturnField(n *xhtml.Node) bool {
	return n.Type == xhtml.ElementNode && n.DataAtom == atom.Input && dom.Attr(n, "name") == layout.ReturnField
}

func setComponent(ctx context.Context, n *xhtml.Node, c templ.Component) error {
	markup, err := view.String(ctx, c)
	if err != nil {
		return err
	}
	return dom.SetHTML(n, markup)
}

func appendComponent(ctx context.Context, n *xhtml.Node, c templ.Component) error {
	markup, err := view.String(ctx, c)
	if err != nil {
		return err
	}
	nodes, err := dom.Fragment(markup)
	if err != nil {
		return err
	}
	dom.Append(n, nodes)
	return nil
}
