package web

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"squad/internal/adapters/http/middleware"
	"squad/internal/application/orchestrators"
	"squad/internal/application/pages"
	"squad/internal/domain/access"
)

// guard resolves the actor's capabilities and enforces the page-level gate.
// Anonymous HTML requests go to the login page; anonymous JSON requests get 401.
func (s *Server) guard(res access.Resource, op access.Operation, h checkedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := middleware.GetSessionFromContext(r.Context())
		if !ok {
			if isHTMLRequest(r) {
				http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
				return
			}
			writeJSON(w, http.StatusUnauthorized, problem{Error: "authentication required"})
			return
		}
		c := s.policy.For(sess.Role)
		if !c.HasAccess(res, op, access.ScopeProject) {
			slog.WarnContext(r.Context(), "auth_denied",
				"user_id", sess.UserID, "role", sess.Role, "resource", res, "operation", op, "path", r.URL.Path)
			s.fail(w, r, pages.ErrForbidden)
			return
		}
		h(w, r, c)
	}
}

type loginView struct {
	Email string
	Next  string
	Error string
}

// handleLoginForm handles GET /login
func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	next := safeNext(r.URL.Query().Get("next"))
	if _, ok := middleware.GetSessionFromContext(r.Context()); ok {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, "login.html", loginView{Next: next})
}

// handleLogin handles POST /login from the form or a JSON body.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	values, err := readValues(w, r)
	if err != nil {
		s.fail(w, r, invalidInput{err})
		return
	}
	input := orchestrators.LoginInput{
		Email:    values.Get("email"),
		Password: values["password"],
	}
	next := safeNext(values.Get("next"))

	result, err := orchestrators.ExecuteLogin(r.Context(), input, orchestrators.LoginDeps{UserStore: s.stores.Users})
	if err != nil {
		if !isHTMLRequest(r) {
			writeJSON(w, http.StatusUnauthorized, problem{Error: err.Error()})
			return
		}
		s.render(w, r, http.StatusUnauthorized, "login.html", loginView{Email: input.Email, Next: next, Error: err.Error()})
		return
	}

	token, err := s.sessions.Create(result.UserID, result.Email, result.Role)
	if err != nil {
		internalError(w, r, err)
		return
	}
	middleware.SetSessionCookie(w, token, s.opts.Secure, s.sessions.TTL())

	if !isHTMLRequest(r) {
		writeJSON(w, http.StatusOK, map[string]string{"user_id": result.UserID, "email": result.Email, "role": result.Role})
		return
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// handleLogout handles POST /logout
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil {
		s.sessions.Delete(cookie.Value)
	}
	middleware.ClearSessionCookie(w, s.opts.Secure)
	if !isHTMLRequest(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// safeNext keeps post-login redirects on this site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/teams"
	}
	return next
}
