package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"squad/internal/adapters/storage"
	"squad/internal/application/listutil"
	"squad/internal/application/pages"
	"squad/internal/application/querycache"
	"squad/internal/domain/access"
	"squad/internal/domain/schema"
)

// crudStore is the store surface every admin section uses.
type crudStore[T any] interface {
	List(ctx context.Context, q storage.Query) ([]T, error)
	Count(ctx context.Context) (int, error)
	Get(ctx context.Context, id string, relations []string) (T, error)
	Create(ctx context.Context, rec T) (T, error)
	Update(ctx context.Context, rec T) (T, error)
	Delete(ctx context.Context, id string) error
}

// admin describes the list, form and detail pages of one resource.
type admin[T any] struct {
	s        *Server
	resource access.Resource
	title    string // plural, for the list heading and nav
	singular string
	base     string
	store    crudStore[T]

	schema       schema.Schema
	createSchema schema.Schema // when set, used for create instead of schema

	sortable      []string
	listRelations []string // "x" expands, "x.count" counts
	columns       []pages.Column[T]

	detailRelations []string
	fields          []pages.Column[T]
	children        []pages.Child[T]

	id     func(T) string
	label  func(T) string
	values func(T) schema.Values
	decode func(base T, v schema.Values) (T, error)

	// invalidates lists other collections that show this resource.
	invalidates []querycache.Key
	afterCreate func(ctx context.Context, rec T)
}

type checkedHandler func(w http.ResponseWriter, r *http.Request, c access.Checker)

func (a *admin[T]) register(mux *http.ServeMux) {
	g := a.s.guard
	mux.HandleFunc("GET "+a.base, g(a.resource, access.OpRead, a.handleList))
	mux.HandleFunc("GET "+a.base+"/create", g(a.resource, access.OpCreate, a.handleCreateForm))
	mux.HandleFunc("POST "+a.base+"/create", g(a.resource, access.OpCreate, a.handleCreate))
	mux.HandleFunc("GET "+a.base+"/edit/{id}", g(a.resource, access.OpUpdate, a.handleEditForm))
	mux.HandleFunc("POST "+a.base+"/edit/{id}", g(a.resource, access.OpUpdate, a.handleEdit))
	mux.HandleFunc("GET "+a.base+"/view/{id}", g(a.resource, access.OpRead, a.handleView))
	mux.HandleFunc("POST "+a.base+"/delete/{id}", g(a.resource, access.OpRead, a.handleDelete))
	mux.HandleFunc("POST "+a.base+"/view/{id}/delete/{child}/{childID}", g(a.resource, access.OpRead, a.handleChildDelete))
	mux.HandleFunc("DELETE "+a.base+"/{id}", g(a.resource, access.OpDelete, a.handleAPIDelete))
}

func (a *admin[T]) navItem() navItem {
	return navItem{Title: a.title, Href: a.base, Resource: a.resource}
}

// keys are invalidated after any mutation of this resource.
func (a *admin[T]) keys() []querycache.Key {
	return append([]querycache.Key{querycache.Key(a.base)}, a.invalidates...)
}

func (a *admin[T]) formSchema(create bool) schema.Schema {
	if create && len(a.createSchema.Fields) > 0 {
		return a.createSchema
	}
	return a.schema
}

// --- list ---

func (a *admin[T]) listPage(c access.Checker, p listutil.ListParams) *pages.ListPage[T] {
	rels, counts := storage.ParseRelations(a.listRelations)
	return pages.NewListPage(pages.ListConfig[T]{
		Resource: a.resource,
		Base:     a.base,
		Query: storage.Query{
			Relations: rels,
			Counts:    counts,
			Sort:      p.Sort,
			Dir:       p.Dir,
			Limit:     p.PerPage,
			Offset:    p.Offset(),
		},
		Columns: a.columns,
		ID:      a.id,
		// The base key is always invalidated by the page itself.
		Invalidates: a.invalidates,
	}, a.store, c, a.s.cache)
}

func (a *admin[T]) handleList(w http.ResponseWriter, r *http.Request, c access.Checker) {
	params := listutil.ParseListParams(r.URL.Query(), a.sortable)
	page := a.listPage(c, params)
	defer page.Close()

	_ = page.Load(r.Context()) // kept on page.LoadErr
	a.respondList(w, r, page, params, http.StatusOK)
}

// handleDelete removes one row from the list and re-renders it.
func (a *admin[T]) handleDelete(w http.ResponseWriter, r *http.Request, c access.Checker) {
	params := listutil.ParseListParams(r.URL.Query(), a.sortable)
	page := a.listPage(c, params)
	defer page.Close()
	_ = page.Load(r.Context())

	err := page.Delete(r.Context(), r.PathValue("id"))
	if errors.Is(err, pages.ErrForbidden) {
		a.s.fail(w, r, err)
		return
	}
	a.s.metrics.CountMutation(string(a.resource), "delete", err)
	if err != nil {
		slog.InfoContext(r.Context(), "delete_failed", "resource", a.resource, "id", r.PathValue("id"), "error", err)
		if !isHTMLRequest(r) {
			a.s.fail(w, r, err)
			return
		}
		a.respondList(w, r, page, params, statusFor(err))
		return
	}
	if !isHTMLRequest(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	target := a.base
	if q := params.Encode(params.Page); q != "" {
		target += "?" + q
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

type listResponse[T any] struct {
	Data       []T               `json:"data"`
	Pagination listutil.PageInfo `json:"pagination"`
}

type listView struct {
	Title     string
	Singular  string
	Base      string
	Query     string
	Table     pages.Table
	Headers   []headerView
	CanCreate bool
	LoadErr   string
	DeleteErr string
	Page      listutil.PageInfo
	Pages     []pageLink
	PrevHref  string
	NextHref  string
}

type headerView struct {
	Label  string
	Href   string // empty when not sortable
	Active bool
	Dir    string
}

type pageLink struct {
	Number  int
	Href    string
	Current bool
}

func (a *admin[T]) respondList(w http.ResponseWriter, r *http.Request, page *pages.ListPage[T], params listutil.ListParams, status int) {
	info := listutil.NewPageInfo(params.Page, params.PerPage, page.Total)
	if !isHTMLRequest(r) {
		if page.LoadErr != nil {
			a.s.fail(w, r, page.LoadErr)
			return
		}
		data := page.Records
		if data == nil {
			data = []T{}
		}
		writeJSON(w, status, listResponse[T]{Data: data, Pagination: info})
		return
	}

	table := page.Table()
	view := listView{
		Title:     a.title,
		Singular:  a.singular,
		Base:      a.base,
		Query:     params.Encode(params.Page),
		Table:     table,
		CanCreate: page.CanCreate(),
		LoadErr:   userMessage(r, page.LoadErr),
		DeleteErr: userMessage(r, page.DeleteErr),
		Page:      info,
	}
	for i, label := range table.Headers {
		view.Headers = append(view.Headers, a.header(label, table.Sorts[i], params))
	}
	for _, n := range info.PageNumbers() {
		view.Pages = append(view.Pages, pageLink{Number: n, Href: a.pageHref(params, n), Current: n == info.Page})
	}
	if info.HasPrev() {
		view.PrevHref = a.pageHref(params, info.Page-1)
	}
	if info.HasNext() {
		view.NextHref = a.pageHref(params, info.Page+1)
	}
	a.s.render(w, r, status, "list.html", view)
}

func (a *admin[T]) header(label, sort string, params listutil.ListParams) headerView {
	h := headerView{Label: label}
	if sort == "" {
		return h
	}
	next := listutil.ListParams{PageParams: params.PageParams, SortParams: listutil.SortParams{Sort: sort, Dir: "asc"}}
	if params.Sort == sort {
		h.Active = true
		h.Dir = params.Dir
		if params.Dir == "asc" {
			next.Dir = "desc"
		}
	}
	h.Href = a.base + "?" + next.Encode(1)
	return h
}

func (a *admin[T]) pageHref(params listutil.ListParams, n int) string {
	q := params.Encode(n)
	if q == "" {
		return a.base
	}
	return a.base + "?" + q
}

// --- forms ---

func (a *admin[T]) handleCreateForm(w http.ResponseWriter, r *http.Request, c access.Checker) {
	form := pages.NewCreateForm(a.formSchema(true), r.URL.Query(), a.s.cache, a.keys()...)
	if !isHTMLRequest(r) {
		writeJSON(w, http.StatusOK, map[string]any{"values": form.Values})
		return
	}
	a.renderForm(w, r, c, form, a.base+"/create", http.StatusOK)
}

func (a *admin[T]) handleCreate(w http.ResponseWriter, r *http.Request, c access.Checker) {
	values, err := readValues(w, r)
	if err != nil {
		a.s.fail(w, r, invalidInput{err})
		return
	}
	form := pages.NewCreateForm(a.formSchema(true), nil, a.s.cache, a.keys()...)
	form.Bind(values)

	var created T
	err = form.Submit(r.Context(), func(ctx context.Context, v schema.Values) error {
		var zero T
		rec, err := a.decode(zero, v)
		if err != nil {
			return invalidInput{err}
		}
		created, err = a.store.Create(ctx, rec)
		return err
	})
	a.afterSubmit(w, r, c, form, "create", err, func() {
		if a.afterCreate != nil {
			a.afterCreate(r.Context(), created)
		}
		if !isHTMLRequest(r) {
			writeJSON(w, http.StatusCreated, created)
			return
		}
		http.Redirect(w, r, a.base+"/view/"+a.id(created), http.StatusSeeOther)
	})
}

func (a *admin[T]) handleEditForm(w http.ResponseWriter, r *http.Request, c access.Checker) {
	rec, err := a.store.Get(r.Context(), r.PathValue("id"), nil)
	if err != nil {
		a.s.fail(w, r, err)
		return
	}
	form := pages.NewEditForm(a.schema, a.values(rec), a.s.cache, a.keys()...)
	if !isHTMLRequest(r) {
		writeJSON(w, http.StatusOK, map[string]any{"values": form.Values})
		return
	}
	a.renderForm(w, r, c, form, a.base+"/edit/"+a.id(rec), http.StatusOK)
}

func (a *admin[T]) handleEdit(w http.ResponseWriter, r *http.Request, c access.Checker) {
	rec, err := a.store.Get(r.Context(), r.PathValue("id"), nil)
	if err != nil {
		a.s.fail(w, r, err)
		return
	}
	submitted, err := readValues(w, r)
	if err != nil {
		a.s.fail(w, r, invalidInput{err})
		return
	}
	// Fields left out of the submission keep their current values.
	values := a.values(rec)
	for k, v := range submitted {
		values[k] = v
	}
	form := pages.NewEditForm(a.schema, a.values(rec), a.s.cache, a.keys()...)
	form.Bind(values)

	var updated T
	err = form.Submit(r.Context(), func(ctx context.Context, v schema.Values) error {
		next, err := a.decode(rec, v)
		if err != nil {
			return invalidInput{err}
		}
		updated, err = a.store.Update(ctx, next)
		return err
	})
	a.afterSubmit(w, r, c, form, "update", err, func() {
		if !isHTMLRequest(r) {
			writeJSON(w, http.StatusOK, updated)
			return
		}
		http.Redirect(w, r, a.base+"/view/"+a.id(updated), http.StatusSeeOther)
	})
}

// afterSubmit records the outcome and either calls ok or re-renders the form.
func (a *admin[T]) afterSubmit(w http.ResponseWriter, r *http.Request, c access.Checker, form *pages.FormPage, op string, err error, ok func()) {
	if !errors.Is(err, pages.ErrSubmitDisabled) {
		a.s.metrics.CountMutation(string(a.resource), op, err)
	}
	if err == nil {
		ok()
		return
	}
	if !isHTMLRequest(r) {
		if errors.Is(err, pages.ErrSubmitDisabled) {
			a.s.fail(w, r, form.Errors)
			return
		}
		a.s.fail(w, r, err)
		return
	}
	action := a.base + "/create"
	if form.Mode == pages.ModeEdit {
		action = a.base + "/edit/" + r.PathValue("id")
	}
	a.renderForm(w, r, c, form, action, statusFor(err))
}

// readValues reads submitted values from a JSON object or a urlencoded form.
func readValues(w http.ResponseWriter, r *http.Request) (schema.Values, error) {
	if isJSONBody(r) {
		var raw map[string]any
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("invalid JSON body: %w", err)
		}
		v := make(schema.Values, len(raw))
		for k, val := range raw {
			switch val := val.(type) {
			case nil:
				v[k] = ""
			case string:
				v[k] = val
			default:
				v[k] = fmt.Sprint(val)
			}
		}
		return v, nil
	}
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	v := make(schema.Values, len(r.PostForm))
	for k := range r.PostForm {
		v[k] = r.PostForm.Get(k)
	}
	return v, nil
}

type formView struct {
	Title     string
	Action    string
	Cancel    string
	Mode      string
	Fields    []fieldView
	SubmitErr string
}

type fieldView struct {
	Name      string
	Label     string
	Input     string // text, textarea, email, password, datetime-local, select
	Value     string
	Error     string
	Required  bool
	MinLength int
	MaxLength int
	Options   []option
}

func (a *admin[T]) renderForm(w http.ResponseWriter, r *http.Request, c access.Checker, form *pages.FormPage, action string, status int) {
	title := "Create " + a.singular
	cancel := a.base
	if form.Mode == pages.ModeEdit {
		title = "Edit " + a.singular
		cancel = a.base + "/view/" + r.PathValue("id")
	}
	view := formView{
		Title:     title,
		Action:    action,
		Cancel:    cancel,
		Mode:      form.Mode.String(),
		SubmitErr: userMessage(r, form.SubmitErr),
	}
	for _, f := range form.Schema.Fields {
		view.Fields = append(view.Fields, a.s.fieldView(r.Context(), c, f, form.Values[f.Name], form.Errors[f.Name]))
	}
	a.s.render(w, r, status, "form.html", view)
}

// --- detail ---

func (a *admin[T]) detailPage(c access.Checker, id string) *pages.DetailPage[T] {
	return pages.NewDetailPage(pages.DetailConfig[T]{
		Resource:    a.resource,
		Base:        a.base,
		Relations:   a.detailRelations,
		Fields:      a.fields,
		Children:    a.children,
		Invalidates: a.invalidates,
	}, id, a.store, c, a.s.cache)
}

func (a *admin[T]) handleView(w http.ResponseWriter, r *http.Request, c access.Checker) {
	page := a.detailPage(c, r.PathValue("id"))
	defer page.Close()
	if err := page.Load(r.Context()); err != nil {
		a.s.fail(w, r, err)
		return
	}
	if !isHTMLRequest(r) {
		writeJSON(w, http.StatusOK, page.Record)
		return
	}
	a.renderDetail(w, r, page, http.StatusOK)
}

func (a *admin[T]) handleChildDelete(w http.ResponseWriter, r *http.Request, c access.Checker) {
	page := a.detailPage(c, r.PathValue("id"))
	defer page.Close()
	if err := page.Load(r.Context()); err != nil {
		a.s.fail(w, r, err)
		return
	}

	child := access.Resource(r.PathValue("child"))
	err := page.DeleteChild(r.Context(), child, r.PathValue("childID"))
	if errors.Is(err, pages.ErrForbidden) || errors.Is(err, pages.ErrUnknownChild) {
		a.s.fail(w, r, err)
		return
	}
	a.s.metrics.CountMutation(string(child), "delete", err)
	if err != nil {
		slog.InfoContext(r.Context(), "delete_failed", "resource", child, "id", r.PathValue("childID"), "error", err)
		if !isHTMLRequest(r) {
			a.s.fail(w, r, err)
			return
		}
		a.renderDetail(w, r, page, statusFor(err))
		return
	}
	if !isHTMLRequest(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, a.base+"/view/"+page.ID(), http.StatusSeeOther)
}

type detailView struct {
	Title          string
	Base           string
	ID             string
	Fields         []pages.Field
	Sections       []pages.Section
	CanEdit        bool
	CanDelete      bool
	LoadErr        string
	ChildDeleteErr string
}

func (a *admin[T]) renderDetail(w http.ResponseWriter, r *http.Request, page *pages.DetailPage[T], status int) {
	a.s.render(w, r, status, "detail.html", detailView{
		Title:          a.singular + ": " + a.label(page.Record),
		Base:           a.base,
		ID:             page.ID(),
		Fields:         page.Fields(),
		Sections:       page.Sections(),
		CanEdit:        page.CanEdit(),
		CanDelete:      page.CanDelete(),
		LoadErr:        userMessage(r, page.LoadErr),
		ChildDeleteErr: userMessage(r, page.ChildDeleteErr),
	})
}

// --- JSON delete ---

func (a *admin[T]) handleAPIDelete(w http.ResponseWriter, r *http.Request, _ access.Checker) {
	err := a.store.Delete(r.Context(), r.PathValue("id"))
	a.s.metrics.CountMutation(string(a.resource), "delete", err)
	a.s.cache.Invalidate(r.Context(), a.keys()...)
	if err != nil {
		a.s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
