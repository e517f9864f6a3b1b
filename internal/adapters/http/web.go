// Package web serves the admin pages and their JSON equivalents.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"

	"squad/internal/adapters/email"
	"squad/internal/adapters/http/metrics"
	"squad/internal/adapters/http/middleware"
	coachStore "squad/internal/adapters/storage/coach"
	eventStore "squad/internal/adapters/storage/event"
	playerStore "squad/internal/adapters/storage/player"
	teamStore "squad/internal/adapters/storage/team"
	planStore "squad/internal/adapters/storage/trainingplan"
	userStore "squad/internal/adapters/storage/user"
	"squad/internal/application/querycache"
	"squad/internal/domain/access"
)

// Stores holds all storage dependencies.
type Stores struct {
	Teams         teamStore.Store
	Users         userStore.Store
	Coaches       coachStore.Store
	Players       playerStore.Store
	Events        eventStore.Store
	TrainingPlans planStore.Store
}

// Options carries deployment settings for the HTTP surface.
type Options struct {
	Secure         bool   // HTTPS deployment: secure cookies, strict CSRF origin checks
	CSRFKey        []byte // 32 bytes
	TrustedOrigins []string
	CORSOrigins    []string
	RateLimit      int // requests per second per client; zero disables limiting
	SlowRequest    time.Duration
	BaseURL        string // absolute site root used in emails
}

// Deps holds everything the server needs.
type Deps struct {
	Stores   Stores
	Policy   access.Policy
	Sessions *middleware.SessionStore
	Cache    *querycache.Cache
	Metrics  *metrics.Registry // may be nil
	Mailer   email.Sender      // may be nil; notifications are skipped
	Clock    clockwork.Clock
	Options  Options
}

// Server owns routing, rendering and the admin page descriptors.
type Server struct {
	stores   Stores
	policy   access.Policy
	sessions *middleware.SessionStore
	cache    *querycache.Cache
	metrics  *metrics.Registry
	mailer   email.Sender
	clock    clockwork.Clock
	opts     Options
	views    *views
	admins   []registrar
	options  map[access.Resource]optionSource
}

type registrar interface {
	register(mux *http.ServeMux)
	navItem() navItem
}

// NewServer builds a server from deps.
// PRE: Stores, Sessions and Cache are set
func NewServer(d Deps) *Server {
	if d.Policy == nil {
		d.Policy = access.DefaultPolicy()
	}
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	s := &Server{
		stores:   d.Stores,
		policy:   d.Policy,
		sessions: d.Sessions,
		cache:    d.Cache,
		metrics:  d.Metrics,
		mailer:   d.Mailer,
		clock:    d.Clock,
		opts:     d.Options,
		views:    mustParseViews(),
	}
	s.options = s.referenceOptions()
	s.admins = []registrar{
		s.teamAdmin(),
		s.playerAdmin(),
		s.coachAdmin(),
		s.eventAdmin(),
		s.trainingPlanAdmin(),
		s.userAdmin(),
	}
	return s
}

// Routes returns the bare router without middleware. Handlers read the
// session from the request context.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/teams", http.StatusSeeOther)
	})
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", s.metrics.Handler())
	mux.HandleFunc("GET /login", s.handleLoginForm)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)
	for _, a := range s.admins {
		a.register(mux)
	}
	return mux
}

// Handler returns the routed application wrapped in the middleware chain.
// ctx bounds the rate limiter's background sweep.
func (s *Server) Handler(ctx context.Context) http.Handler {
	mws := []func(http.Handler) http.Handler{
		middleware.Timing(s.metrics, s.opts.SlowRequest),
		middleware.SecurityHeaders,
		middleware.CORS(s.opts.CORSOrigins),
		middleware.CSRF(s.opts.CSRFKey, s.opts.Secure, s.opts.TrustedOrigins),
		middleware.Auth(s.sessions),
	}
	if s.opts.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(ctx, s.clock, s.opts.RateLimit, time.Second)
		mws = append(mws, middleware.RateLimit(limiter))
	}
	mws = append(mws, middleware.Recovery)
	// Timing is innermost so it sees the pattern the mux matched.
	return middleware.Chain(s.Routes(), mws...)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if _, err := s.stores.Teams.Count(r.Context()); err != nil {
		internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
