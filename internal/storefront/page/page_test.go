package page

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	cartapp "github.com/dwikikusuma/storefront/internal/cart/app"
	cartdomain "github.com/dwikikusuma/storefront/internal/cart/domain"
	"github.com/dwikikusuma/storefront/internal/catalog/domain"
	"github.com/dwikikusuma/storefront/internal/storefront/dom"
	"github.com/dwikikusuma/storefront/internal/storefront/layout"
	"github.com/dwikikusuma/storefront/internal/storefront/panel"
	"github.com/dwikikusuma/storefront/internal/storefront/view"
	"github.com/dwikikusuma/storefront/pkg/logger"
)

type fakeCatalog struct {
	products []domain.Product
	err      error
	calls    int
}

func (f *fakeCatalog) ListProducts(ctx context.Context, limit int) ([]domain.Product, error) {
	f.calls++
	return f.products, f.err
}

const indexSrc = `<!DOCTYPE html><html><head><title>t</title></head><body><main><section id="productos"><div id="contenedor-productos"><p>Cargando…</p></div></section></main></body></html>`

func twoItemCart() cartapp.Snapshot {
	return cartapp.Snapshot{
		Items: []cartdomain.LineItem{
			{ID: "1", Name: "A", UnitPrice: 10, Quantity: 2},
			{ID: "2", Name: "B", UnitPrice: 5, Quantity: 1},
		},
		Total: 25,
		Count: 3,
	}
}

func TestDocumentRendersProductsAndCart(t *testing.T) {
	catalog := &fakeCatalog{products: []domain.Product{{ID: "9", Title: "Gorra", Price: 3}}}
	r := NewRenderer(catalog, 8, time.Second, logger.Discard())

	doc, err := r.Document(context.Background(), []byte(indexSrc), State{Path: "/", Return: "/", Cart: twoItemCart()})
	require.NoError(t, err)
	out := dom.RenderString(doc)

	require.Equal(t, 1, catalog.calls)
	require.Contains(t, out, `class="producto-card"`)
	require.NotContains(t, out, "Cargando")
	require.Equal(t, "$25.00", dom.ByID(doc, layout.TotalID).FirstChild.Data)
	require.Equal(t, "3", dom.ByID(doc, layout.CounterID).FirstChild.Data)
	require.Equal(t, 2, strings.Count(out, `class="cart-item"`))
	require.Contains(t, out, `aria-hidden="true"`)
	require.NotContains(t, out, "toast-message")
}

func TestDocumentCatalogFailure(t *testing.T) {
	r := NewRenderer(&fakeCatalog{err: errors.New("HTTP 500")}, 8, time.Second, logger.Discard())

	doc, err := r.Document(context.Background(), []byte(indexSrc), State{Path: "/", Return: "/"})
	require.NoError(t, err)

	container := dom.ByID(doc, layout.ProductsID)
	require.Contains(t, dom.RenderString(container), view.CatalogErrorText)
	require.Contains(t, dom.RenderString(doc), "Tu carrito está vacío.")
}

func TestDocumentWithoutProductContainerSkipsCatalog(t *testing.T) {
	catalog := &fakeCatalog{}
	r := NewRenderer(catalog, 8, time.Second, logger.Discard())

	doc, err := r.Document(context.Background(), []byte(`<html><body><p>Nosotros</p></body></html>`), State{Path: "/pages/nosotros.html", Return: "/pages/nosotros.html"})
	require.NoError(t, err)
	require.Zero(t, catalog.calls)

	out := dom.RenderString(doc)
	require.Contains(t, out, `href="../index.html"`)
	require.Contains(t, out, `name="return" value="/pages/nosotros.html"`)
}

func TestDocumentOpenPanelAndToast(t *testing.T) {
	r := NewRenderer(&fakeCatalog{}, 8, 1500*time.Millisecond, logger.Discard())

	doc, err := r.Document(context.Background(), []byte(indexSrc), State{
		Path:   "/",
		Return: "/?cart=open",
		Panel:  panel.State{Open: true},
		Notice: cartapp.Notice{Message: "Gorra añadido al carrito"},
	})
	require.NoError(t, err)

	aside := dom.ByID(doc, layout.PanelID)
	require.True(t, dom.HasClass(aside, panel.VisibleClass))
	require.Equal(t, "true", dom.Attr(dom.ByID(doc, layout.ToggleID), "aria-expanded"))

	toasts := dom.ByID(doc, layout.ToastID)
	require.NotNil(t, toasts)
	require.Contains(t, dom.RenderString(toasts), `data-duration="1500"`)
}

func TestDocumentConfirmClearOpensPanel(t *testing.T) {
	r := NewRenderer(&fakeCatalog{}, 8, time.Second, logger.Discard())

	doc, err := r.Document(context.Background(), []byte(indexSrc), State{Path: "/", Return: "/", Cart: twoItemCart(), ConfirmClear: true})
	require.NoError(t, err)

	aside := dom.ByID(doc, layout.PanelID)
	require.True(t, dom.HasClass(aside, panel.VisibleClass))
	require.Contains(t, dom.RenderString(aside), `name="confirm" value="yes"`)
}

func TestPanelFragment(t *testing.T) {
	r := NewRenderer(&fakeCatalog{}, 8, time.Second, logger.Discard())

	c, err := r.Panel(context.Background(), State{
		Path:   "/",
		Return: "/",
		Cart:   twoItemCart(),
		Panel:  panel.State{Open: true},
		Notice: cartapp.Notice{Message: "ok"},
	})
	require.NoError(t, err)

	out, err := view.String(context.Background(), c)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, `<aside id="carrito-listado"`))
	require.Contains(t, out, "carrito-visible")
	require.Contains(t, out, `<button id="btn-toggle-carrito" type="submit" aria-expanded="true" aria-controls="carrito-listado" hx-swap-oob="true">🛒 <span id="contador-carrito">3</span></button>`)
	require.Contains(t, out, `<div id="toast-container" hx-swap-oob="innerHTML">`)
	require.Contains(t, out, "$25.00")
}

func TestDocumentAlwaysHasToastContainer(t *testing.T) {
	r := NewRenderer(&fakeCatalog{}, 8, time.Second, logger.Discard())

	doc, err := r.Document(context.Background(), []byte(indexSrc), State{Path: "/", Return: "/"})
	require.NoError(t, err)

	toasts := dom.ByID(doc, layout.ToastID)
	require.NotNil(t, toasts)
	require.Nil(t, toasts.FirstChild)
}

func TestCatalogFailureIsNotReloggedAsError(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	r := NewRenderer(&fakeCatalog{err: errors.New("down")}, 8, time.Second, log)

	doc, err := r.Document(context.Background(), []byte(indexSrc), State{Path: "/", Return: "/"})
	require.NoError(t, err)
	require.Contains(t, dom.RenderString(doc), view.CatalogErrorText)
	require.Empty(t, buf.String(), "the catalog service already logs the failure")
}
