package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/microcosm-cc/bluemonday"

	"github.com/spec-kit/eventflow/internal/domain"
	"github.com/spec-kit/eventflow/internal/shell"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageData is everything a view renders from.
type PageData struct {
	AppName string
	View    View
	State   shell.State
	Notice  *shell.Notice

	// FormError and Form carry an inline error and the echoed input of a
	// rejected login or signup post.
	FormError string
	Form      map[string]string

	TotalRevenue     float64
	RegistrantCounts []EventCount
	RegisteredEvents []RegisteredEvent
}

// User returns the signed-in user or nil.
func (p PageData) User() *domain.User {
	return p.State.CurrentUser
}

// NewPageData resolves the view for st and derives the aggregates it shows.
func NewPageData(appName string, st shell.State, notice *shell.Notice) PageData {
	view := Resolve(st)
	data := PageData{
		AppName: appName,
		View:    view,
		State:   st,
		Notice:  notice,
		Form:    map[string]string{},
	}
	switch view {
	case ViewAdminDashboard:
		data.TotalRevenue = TotalRevenue(st.Events, st.Registrations)
		data.RegistrantCounts = RegistrantCounts(st.Events, st.Registrations)
	case ViewUserDashboard:
		data.RegisteredEvents = RegisteredEvents(st.CurrentUser, st.Events, st.Registrations)
	}
	return data
}

// Renderer executes the embedded page templates.
type Renderer struct {
	pages map[View]*template.Template
}

// NewRenderer parses the layout with every page.
func NewRenderer() (*Renderer, error) {
	policy := bluemonday.UGCPolicy()
	funcs := template.FuncMap{
		"price": formatPrice,
		"money": func(v float64) string { return fmt.Sprintf("$%.2f", v) },
		"rich": func(s string) template.HTML {
			return template.HTML(policy.Sanitize(s)) //nolint:gosec
		},
	}

	r := &Renderer{pages: make(map[View]*template.Template, len(All))}
	for _, v := range All {
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html",
			"templates/partials.html",
			"templates/"+string(v)+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parse %s view: %w", v, err)
		}
		r.pages[v] = tmpl
	}
	return r, nil
}

// Render writes the page for data.View.
func (r *Renderer) Render(w io.Writer, data PageData) error {
	tmpl, ok := r.pages[data.View]
	if !ok {
		tmpl = r.pages[ViewHome]
	}
	return tmpl.ExecuteTemplate(w, "layout.html", data)
}

func formatPrice(e domain.Event) string {
	if e.IsFree() {
		return "Free"
	}
	return fmt.Sprintf("$%.2f", e.PriceOrZero())
}
