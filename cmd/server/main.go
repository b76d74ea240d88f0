package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/leadpilot/crm-mailer/internal/auth"
	"github.com/leadpilot/crm-mailer/internal/config"
	"github.com/leadpilot/crm-mailer/internal/controller"
	"github.com/leadpilot/crm-mailer/internal/db"
	"github.com/leadpilot/crm-mailer/internal/events"
	"github.com/leadpilot/crm-mailer/internal/logger"
	"github.com/leadpilot/crm-mailer/internal/mailer"
	"github.com/leadpilot/crm-mailer/internal/repository"
	"github.com/leadpilot/crm-mailer/internal/service"
)

func main() {
	_ = godotenv.Load() // containerized deployments pass env directly
	cfg := config.Load()
	log := logger.New(cfg.AppEnv)

	conn, err := db.Connect(cfg.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer conn.Close()

	leadRepo := &repository.LeadRepository{DB: conn}
	templateRepo := &repository.TemplateRepository{DB: conn}
	jobRepo := &repository.JobRepository{DB: conn}

	sender := mailer.New(cfg, log)
	publisher := events.New(cfg.AMQPURL, log)
	defer publisher.Close()

	templateService := &service.TemplateService{Templates: templateRepo}
	dispatchService := &service.DispatchService{
		Templates: templateRepo,
		Jobs:      jobRepo,
		Resolver:  &service.RecipientResolver{Leads: leadRepo, Cap: cfg.RecipientCap},
		Sender:    sender,
		Events:    publisher,
		Log:       log,
	}

	// The job processor runs inside the server process. One active
	// processor per store is the deployment invariant; do not run a
	// second instance against the same database.
	processor := &service.JobProcessor{
		Jobs:      jobRepo,
		Templates: templateRepo,
		Sender:    sender,
		Events:    publisher,
		Interval:  cfg.JobPollInterval,
		BatchSize: cfg.JobBatchSize,
		Log:       log,
	}
	processor.Start()
	defer processor.Stop()

	templateController := &controller.TemplateController{Templates: templateService}
	dispatchController := &controller.DispatchController{
		Dispatch: dispatchService,
		Jobs:     jobRepo,
		Leads:    leadRepo,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(auth.Middleware)

	r.Post("/templates", templateController.Create)
	r.Get("/templates", templateController.List)
	r.Get("/templates/{id}", templateController.Get)
	r.Put("/templates/{id}", templateController.Update)
	r.Delete("/templates/{id}", templateController.Delete)

	r.Post("/send", dispatchController.Send)
	r.Post("/schedule", dispatchController.Schedule)
	r.Get("/filters", dispatchController.Filters)
	r.Get("/jobs", dispatchController.ListJobs)
	r.Get("/jobs/{id}", dispatchController.GetJob)

	srv := &http.Server{Addr: cfg.AppAddr, Handler: r}
	go func() {
		log.Info().Str("addr", cfg.AppAddr).Msg("server running")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")
	srv.Close()
}
