package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"squad/internal/adapters/http/middleware"
	"squad/internal/adapters/storage"
	"squad/internal/application/pages"
	"squad/internal/domain/access"
	"squad/internal/domain/schema"
)

//go:embed templates/*.html
var templateFS embed.FS

// pageTemplates are rendered inside layout.html.
var pageTemplates = []string{"list.html", "form.html", "detail.html", "login.html", "error.html"}

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set).
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// views holds one parsed template set per page.
type views struct {
	pages map[string]*template.Template
}

// placeholderFuncs lets templates parse before request-bound funcs exist.
// Every entry is replaced in render.
var placeholderFuncs = template.FuncMap{
	"csrfField":    func() template.HTML { return "" },
	"currentEmail": func() string { return "" },
	"currentRole":  func() string { return "" },
	"isLoggedIn":   func() bool { return false },
	"nav":          func() []navItem { return nil },
	"markdown":     renderMarkdown,
}

func mustParseViews() *views {
	v := &views{pages: make(map[string]*template.Template, len(pageTemplates))}
	for _, name := range pageTemplates {
		tpl := template.Must(template.New("layout.html").Funcs(placeholderFuncs).
			ParseFS(templateFS, "templates/layout.html", "templates/"+name))
		v.pages[name] = tpl
	}
	return v
}

type navItem struct {
	Title    string
	Href     string
	Resource access.Resource
}

func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// render executes a page template with request-bound helpers.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	base, ok := s.views.pages[name]
	if !ok {
		internalError(w, r, fmt.Errorf("unknown template %q", name))
		return
	}
	tpl, err := base.Clone()
	if err != nil {
		internalError(w, r, err)
		return
	}

	sess, loggedIn := middleware.GetSessionFromContext(r.Context())
	checker := access.DenyAll
	if loggedIn {
		checker = s.policy.For(sess.Role)
	}
	tpl.Funcs(template.FuncMap{
		"csrfField":    func() template.HTML { return csrf.TemplateField(r) },
		"currentEmail": func() string { return sess.Email },
		"currentRole":  func() string { return sess.Role },
		"isLoggedIn":   func() bool { return loggedIn },
		"nav":          func() []navItem { return s.nav(checker) },
	})

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		internalError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// nav lists the admin sections the actor may read.
func (s *Server) nav(c access.Checker) []navItem {
	var items []navItem
	for _, a := range s.admins {
		item := a.navItem()
		if c.HasAccess(item.Resource, access.OpRead, access.ScopeProject) {
			items = append(items, item)
		}
	}
	return items
}

func isHTMLRequest(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") || strings.Contains(accept, "application/xhtml+xml")
}

func isJSONBody(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// problem is the JSON error body.
type problem struct {
	Error  string             `json:"error"`
	Fields schema.FieldErrors `json:"fields,omitempty"`
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "internal_error", "method", r.Method, "path", r.URL.Path, "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// invalidInput marks an error caused by the submitted values.
type invalidInput struct{ err error }

func (e invalidInput) Error() string { return e.err.Error() }
func (e invalidInput) Unwrap() error { return e.err }

// statusFor maps an error to the HTTP status it should produce.
func statusFor(err error) int {
	var fe schema.FieldErrors
	var bad invalidInput
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, pages.ErrUnknownChild):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrUnknownRelation):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, pages.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, pages.ErrSubmitDisabled), errors.As(err, &fe), errors.As(err, &bad):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// userMessage is the text shown for err. Unexpected errors are logged and
// replaced with a generic message so details never leak.
func userMessage(r *http.Request, err error) string {
	if err == nil {
		return ""
	}
	switch statusFor(err) {
	case http.StatusNotFound:
		return "The record could not be found."
	case http.StatusForbidden:
		return "You do not have permission to do that."
	case http.StatusInternalServerError:
		slog.ErrorContext(r.Context(), "internal_error", "method", r.Method, "path", r.URL.Path, "error", err.Error())
		return "Something went wrong. Please try again."
	}
	return err.Error()
}

// fail reports err as an error page or a JSON problem.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := userMessage(r, err)
	if isHTMLRequest(r) {
		s.render(w, r, status, "error.html", errorView{Status: status, Message: msg})
		return
	}
	p := problem{Error: msg}
	var fe schema.FieldErrors
	if errors.As(err, &fe) {
		p.Fields = fe
	}
	writeJSON(w, status, p)
}

type errorView struct {
	Status  int
	Message string
}
