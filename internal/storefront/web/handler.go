// Package web wires browser interactions to the cart store. Every control
// posts to a fixed route, so re-rendered markup needs no re-binding; the
// answer is a redirect back to the page for plain forms or the re-rendered
// cart panel for HTMX requests.
package web

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/a-h/templ"

	cartapp "github.com/dwikikusuma/storefront/internal/cart/app"
	"github.com/dwikikusuma/storefront/internal/cart/domain"
	"github.com/dwikikusuma/storefront/internal/storefront/dom"
	"github.com/dwikikusuma/storefront/internal/storefront/layout"
	"github.com/dwikikusuma/storefront/internal/storefront/page"
	"github.com/dwikikusuma/storefront/internal/storefront/panel"
)

const (
	htmxRequestHeader    = "HX-Request"
	htmxCurrentURLHeader = "HX-Current-URL"
	htmxReplaceURLHeader = "HX-Replace-Url"
)

type Options struct {
	Cart       *cartapp.Service
	Renderer   *page.Renderer
	Site       fs.FS
	CookieName string
	Ready      func() bool
	Log        *slog.Logger
}

type Handler struct {
	cart       *cartapp.Service
	renderer   *page.Renderer
	site       fs.FS
	cookieName string
	ready      func() bool
	log        *slog.Logger
}

func NewHandler(opts Options) *Handler {
	h := &Handler{
		cart:       opts.Cart,
		renderer:   opts.Renderer,
		site:       opts.Site,
		cookieName: opts.CookieName,
		ready:      opts.Ready,
		log:        opts.Log,
	}
	if h.cookieName == "" {
		h.cookieName = "storefront_session"
	}
	if h.ready == nil {
		h.ready = func() bool { return true }
	}
	if h.log == nil {
		h.log = slog.Default()
	}
	return h
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", h.servePage)
	mux.HandleFunc("GET /index.html", h.servePage)
	mux.HandleFunc("GET /pages/{name}", h.servePage)
	mux.Handle("GET /assets/", http.FileServerFS(h.site))

	mux.HandleFunc("POST /cart/add", h.addItem)
	mux.HandleFunc("POST /cart/remove", h.removeItem)
	mux.HandleFunc("POST /cart/quantity", h.setQuantity)
	mux.HandleFunc("POST /cart/clear", h.clearCart)
	mux.HandleFunc("POST /cart/toggle", h.panelAction(func(s panel.State) panel.State { return s.Toggle() }))
	mux.HandleFunc("POST /cart/open", h.panelAction(func(s panel.State) panel.State { return s.Set(true) }))
	mux.HandleFunc("POST /cart/close", h.panelAction(func(s panel.State) panel.State { return s.Set(false) }))
	mux.HandleFunc("GET /cart.json", h.cartJSON)

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if !h.ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	return requestLogger(h.log, mux)
}

func (h *Handler) servePage(w http.ResponseWriter, r *http.Request) {
	scope := h.session(w, r)
	notice := takeNotice(w, r)
	h.renderPage(w, r, r.URL.Path, requestURI(r.URL), panel.FromQuery(r.URL.Query()), cartapp.Notice{Message: notice}, false, scope)
}

func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, urlPath, ret string, ps panel.State, notice cartapp.Notice, confirm bool, scope string) {
	src, err := h.pageSource(urlPath)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	snap, err := h.cart.GetCart(r.Context(), scope)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	doc, err := h.renderer.Document(r.Context(), src, page.State{
		Path:         urlPath,
		Return:       ret,
		Cart:         snap,
		Panel:        ps,
		Notice:       notice,
		ConfirmClear: confirm,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dom.Render(w, doc); err != nil {
		h.log.Error("page write failed", slog.Any("err", err), slog.String("path", urlPath))
	}
}

// pageSource maps a request path onto an embedded page file.
func (h *Handler) pageSource(urlPath string) ([]byte, error) {
	name := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	if name == "" {
		name = "index.html"
	}
	if !strings.HasSuffix(name, ".html") || strings.HasPrefix(name, "assets/") {
		return nil, errPageNotFound
	}
	src, err := fs.ReadFile(h.site, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errPageNotFound
	}
	return src, err
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	scope := h.session(w, r)
	if err := r.ParseForm(); err != nil {
		h.writeError(w, r, cartapp.ErrInvalidInput)
		return
	}

	snap, notice, err := h.cart.AddItem(r.Context(), scope,
		r.PostForm.Get("id"),
		r.PostForm.Get("name"),
		domain.ParsePrice(r.PostForm.Get("price")),
	)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respond(w, r, snap, notice, nil)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	scope := h.session(w, r)
	if err := r.ParseForm(); err != nil {
		h.writeError(w, r, cartapp.ErrInvalidInput)
		return
	}

	snap, err := h.cart.RemoveItem(r.Context(), scope, r.PostForm.Get("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respond(w, r, snap, cartapp.Notice{}, nil)
}

func (h *Handler) setQuantity(w http.ResponseWriter, r *http.Request) {
	scope := h.session(w, r)
	if err := r.ParseForm(); err != nil {
		h.writeError(w, r, cartapp.ErrInvalidInput)
		return
	}

	qty := domain.ParseQuantity(r.PostForm.Get("quantity"))
	snap, err := h.cart.SetItemQuantity(r.Context(), scope, r.PostForm.Get("id"), qty)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respond(w, r, snap, cartapp.Notice{}, nil)
}

// clearCart empties the cart only when the request carries confirm=yes.
// Otherwise it answers with the confirmation prompt.
func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	scope := h.session(w, r)
	if err := r.ParseForm(); err != nil {
		h.writeError(w, r, cartapp.ErrInvalidInput)
		return
	}

	if r.PostForm.Get("confirm") != "yes" {
		ret := h.returnURL(r)
		if isHTMX(r) {
			snap, err := h.cart.GetCart(r.Context(), scope)
			if err != nil {
				h.writeError(w, r, err)
				return
			}
			h.writePanel(w, r, ret, snap, cartapp.Notice{}, true)
			return
		}
		h.renderPage(w, r, ret.Path, requestURI(ret), panel.FromQuery(ret.Query()), cartapp.Notice{}, true, scope)
		return
	}

	snap, err := h.cart.ClearCart(r.Context(), scope)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respond(w, r, snap, cartapp.Notice{}, nil)
}

func (h *Handler) panelAction(next func(panel.State) panel.State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope := h.session(w, r)
		if err := r.ParseForm(); err != nil {
			h.writeError(w, r, cartapp.ErrInvalidInput)
			return
		}

		var snap cartapp.Snapshot
		if isHTMX(r) {
			var err error
			if snap, err = h.cart.GetCart(r.Context(), scope); err != nil {
				h.writeError(w, r, err)
				return
			}
		}
		h.respond(w, r, snap, cartapp.Notice{}, next)
	}
}

// respond finishes a cart action. transition, when set, moves the panel
// state read from the return URL.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, snap cartapp.Snapshot, notice cartapp.Notice, transition func(panel.State) panel.State) {
	ret := h.returnURL(r)
	state := panel.FromQuery(ret.Query())
	if transition != nil {
		state = transition(state)
		q := ret.Query()
		state.Encode(q)
		ret.RawQuery = q.Encode()
	}

	if isHTMX(r) {
		w.Header().Set(htmxReplaceURLHeader, requestURI(ret))
		h.writePanel(w, r, ret, snap, notice, false)
		return
	}

	if notice.Message != "" {
		setNotice(w, notice.Message)
	}
	http.Redirect(w, r, requestURI(ret), http.StatusSeeOther)
}

func (h *Handler) writePanel(w http.ResponseWriter, r *http.Request, ret *url.URL, snap cartapp.Snapshot, notice cartapp.Notice, confirm bool) {
	c, err := h.renderer.Panel(r.Context(), page.State{
		Path:         ret.Path,
		Return:       requestURI(ret),
		Cart:         snap,
		Panel:        panel.FromQuery(ret.Query()),
		Notice:       notice,
		ConfirmClear: confirm,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	templ.Handler(c).ServeHTTP(w, r)
}

func (h *Handler) cartJSON(w http.ResponseWriter, r *http.Request) {
	scope := h.session(w, r)
	snap, err := h.cart.GetCart(r.Context(), scope)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	items := snap.Items
	if items == nil {
		items = []domain.LineItem{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		Items []domain.LineItem `json:"items"`
		Total float64           `json:"total"`
		Count int               `json:"count"`
	}{items, snap.Total, snap.Count})
}

// returnURL picks where the shopper goes back to: the page HTMX reports as
// current, else the form's return field, else the site root. Only local
// paths are accepted.
func (h *Handler) returnURL(r *http.Request) *url.URL {
	candidates := []string{r.PostForm.Get(layout.ReturnField)}
	if isHTMX(r) {
		if cur, err := url.Parse(r.Header.Get(htmxCurrentURLHeader)); err == nil && cur.Path != "" {
			candidates = append([]string{requestURI(cur)}, candidates...)
		}
	}
	for _, raw := range candidates {
		if u, ok := localURL(raw); ok {
			return u
		}
	}
	return &url.URL{Path: "/"}
}

func localURL(raw string) (*url.URL, bool) {
	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return nil, false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return nil, false
	}
	return &url.URL{Path: u.Path, RawQuery: u.RawQuery}, true
}

func requestURI(u *url.URL) string {
	if u.RawQuery == "" {
		return u.EscapedPath()
	}
	return u.EscapedPath() + "?" + u.RawQuery
}

func isHTMX(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get(htmxRequestHeader), "true")
}
