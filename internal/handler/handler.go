package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/route-roster/backend/internal/config"
	"github.com/route-roster/backend/internal/metrics"
	"github.com/route-roster/backend/internal/roster"
)

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	translator ut.Translator
	store      roster.Store
	source     roster.DirectorySource
	locker     roster.Locker
	events     Publisher
	pinger     Pinger
	metrics    *metrics.Metrics
	log        *slog.Logger

	Mux *chi.Mux
}

type Options struct {
	Store     roster.Store
	Directory roster.DirectorySource
	Locker    roster.Locker
	Events    Publisher
	Pinger    Pinger
	Metrics   *metrics.Metrics // nil registers on a private registry
	Logger    *slog.Logger
}

func NewHandler(cfg *config.Config, opts Options) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	en := en.New()
	uni := ut.New(en, en)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	events := opts.Events
	if events == nil {
		events = discardPublisher{}
	}
	m := opts.Metrics
	if m == nil {
		var err error
		if m, err = metrics.New(nil); err != nil {
			return nil, err
		}
	}

	return &Handler{
		validate:   validate,
		config:     cfg,
		translator: trans,
		store:      opts.Store,
		source:     opts.Directory,
		locker:     opts.Locker,
		events:     events,
		pinger:     opts.Pinger,
		metrics:    m,
		log:        logger,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	h.Mux.Get("/healthz", h.Healthz)
	h.Mux.Method(http.MethodGet, "/metrics", h.metrics.Handler())

	// everything below needs a verified token
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Route("/schedule/city/{cityID}", func(r chi.Router) {
			r.Use(h.cityDirectory)

			r.Get("/", h.GetCitySchedule)
			r.Put("/route-cell", h.AssignRouteCell)
			r.Put("/label-cell", h.AssignLabelCell)
			r.Delete("/entries/{entryID}", h.ClearEntry)

			r.Get("/hours", h.GetCityHours)
			r.Get("/employees/{employeeID}/hours", h.GetEmployeeHours)

			r.Route("/options", func(r chi.Router) {
				r.Get("/routes", h.GetRouteOptions)
				r.Get("/employees", h.GetEmployeeOptions)
			})
		})
	})
}

// engine builds the assignment engine around the request's directory snapshot.
func (h *Handler) engine(ctx context.Context) *roster.Engine {
	return roster.NewEngine(h.store, directoryFrom(ctx), h.locker, h.log)
}
