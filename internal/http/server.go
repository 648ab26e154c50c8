package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"lifedash/internal/cache"
	applog "lifedash/internal/log"
	"lifedash/internal/middleware/ratelimit"
	"lifedash/internal/middleware/security"
	"lifedash/internal/middleware/trace"
	"lifedash/internal/services"
	"lifedash/internal/sheets"
	"lifedash/internal/vocab"
	"lifedash/internal/workout"
)

const defaultSessionTTL = 6 * time.Hour

// Services are the domain operations exposed over HTTP.
type Services struct {
	Finance    *services.FinanceService
	Workouts   *services.WorkoutService
	Vocabulary *services.VocabularyService
	Habits     *services.HabitService
	// Sheets serves word imports from a spreadsheet range; nil disables them.
	Sheets sheets.TableReader
}

// Options tune the server. The zero value is usable.
type Options struct {
	Logger *applog.Logger
	// RateLimit is requests per minute per client; 0 uses the limiter default.
	RateLimit int
	// Caches receives the session registries for periodic sweeping.
	Caches *cache.Manager
	// Ready reports whether dependencies are reachable for /readyz.
	Ready      func(context.Context) error
	SessionTTL time.Duration
	Now        func() time.Time
}

type Server struct {
	http.Server
	router   chi.Router
	svc      Services
	log      *applog.Logger
	events   *applog.StructuredLogger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	ready    func(context.Context) error
	now      func() time.Time

	recorders *registry[*workout.Recorder]
	quizzes   *registry[*vocab.Quiz]

	shutdownOnce sync.Once
}

// NewServer wires middleware and routes, returning a ready-to-run server.
func NewServer(addr string, svc Services, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = defaultSessionTTL
	}

	s := &Server{
		router:    chi.NewRouter(),
		svc:       svc,
		log:       opts.Logger,
		events:    applog.NewStructuredLogger(opts.Logger),
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimit}),
		detector:  security.NewDetector(),
		ready:     opts.Ready,
		now:       opts.Now,
		recorders: newRegistry[*workout.Recorder](opts.SessionTTL, opts.Now),
		quizzes:   newRegistry[*vocab.Quiz](opts.SessionTTL, opts.Now),
	}
	if opts.Caches != nil {
		opts.Caches.Register(s.recorders)
		opts.Caches.Register(s.quizzes)
	}

	s.routes()
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.router.Use(chimw.Recoverer)
	s.router.Use(trace.NewMiddleware(s.log, s.detector.ExtractClientIP).Middleware)
	s.router.Use(applog.Middleware(s.log))
	s.router.Use(applog.RequestIDMiddleware(trace.RequestID))
	s.router.Use(security.NewHeadersMiddleware(security.APIHeadersConfig()).Middleware)
	s.router.Use(s.detector.Middleware)

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, ErrorBody{Error: "no such route", RequestID: trace.GetRequestID(r.Context())})
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, ErrorBody{Error: "method not allowed", RequestID: trace.GetRequestID(r.Context())})
	})

	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/readyz", s.handleReady)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, s.rateLimited))

		r.Get("/dashboard", s.handleDashboard)

		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", s.handleListExpenses)
			r.Post("/", s.handleCreateExpense)
			r.Get("/totals", s.handleTotals("expenses"))
			r.Delete("/{id}", s.handleDeleteFinance("expenses"))
		})
		r.Route("/payments", func(r chi.Router) {
			r.Get("/", s.handleListPayments)
			r.Post("/", s.handleCreatePayment)
			r.Get("/totals", s.handleTotals("payments"))
			r.Delete("/{id}", s.handleDeleteFinance("payments"))
		})
		r.Route("/debts", func(r chi.Router) {
			r.Get("/", s.handleListDebts)
			r.Post("/", s.handleCreateDebt)
			r.Delete("/{id}", s.handleDeleteFinance("debts"))
		})
		r.Route("/investments", func(r chi.Router) {
			r.Get("/", s.handleListInvestments)
			r.Post("/", s.handleCreateInvestment)
			r.Get("/totals", s.handleTotals("investments"))
			r.Get("/valuation", s.handleValuation)
			r.Delete("/{id}", s.handleDeleteFinance("investments"))
		})

		r.Route("/workouts", func(r chi.Router) {
			r.Get("/", s.handleListWorkouts)
			r.Post("/", s.handleSaveWorkout)
			r.Get("/catalog", s.handleCatalog)
			r.Route("/sessions", func(r chi.Router) {
				r.Post("/", s.handleStartSession)
				r.Get("/{id}", s.handleGetSession)
				r.Delete("/{id}", s.handleAbandonSession)
				r.Post("/{id}/sections", s.handleOpenSection)
				r.Post("/{id}/entries", s.handleAddEntry)
				r.Post("/{id}/sections/close", s.handleCloseSection)
				r.Post("/{id}/finish", s.handleFinishSession)
			})
			r.Get("/{id}", s.handleGetWorkout)
			r.Delete("/{id}", s.handleDeleteWorkout)
		})

		r.Route("/words", func(r chi.Router) {
			r.Get("/", s.handleListWords)
			r.Post("/", s.handleCreateWord)
			r.Post("/import", s.handleImportWords)
			r.Post("/import/sheet", s.handleImportSheet)
			r.Delete("/{id}", s.handleDeleteWord)
		})
		r.Route("/quizzes", func(r chi.Router) {
			r.Post("/", s.handleStartQuiz)
			r.Get("/{id}", s.handleQuizCurrent)
			r.Post("/{id}/reveal", s.handleQuizReveal)
			r.Post("/{id}/answer", s.handleQuizAnswer)
			r.Delete("/{id}", s.handleQuizAbandon)
		})

		r.Route("/habits", func(r chi.Router) {
			r.Get("/", s.handleListCheckIns)
			r.Post("/", s.handleCheckIn)
			r.Get("/streak", s.handleStreak)
			r.Delete("/{id}", s.handleDeleteCheckIn)
		})
	})
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	s.log.WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldPath, r.URL.Path)
	writeJSON(w, http.StatusTooManyRequests, ErrorBody{Error: "rate limit exceeded", RequestID: trace.GetRequestID(r.Context())})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			s.log.WarnContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
