package main

import (
	"github.com/joho/godotenv"
	"github.com/lib/pq"

	"github.com/leadpilot/crm-mailer/internal/config"
	"github.com/leadpilot/crm-mailer/internal/db"
	"github.com/leadpilot/crm-mailer/internal/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS leads (
    id              SERIAL PRIMARY KEY,
    name            TEXT NOT NULL DEFAULT '',
    email           TEXT NOT NULL,
    phone           TEXT NOT NULL DEFAULT '',
    company         TEXT NOT NULL DEFAULT '',
    services        TEXT[] NOT NULL DEFAULT '{}',
    budget_range    TEXT NOT NULL DEFAULT '',
    message         TEXT NOT NULL DEFAULT '',
    status          TEXT NOT NULL DEFAULT 'Nuevo',
    assigned_to     TEXT NOT NULL DEFAULT '',
    tags            TEXT[] NOT NULL DEFAULT '{}',
    note            TEXT NOT NULL DEFAULT '',
    last_contact_at TIMESTAMPTZ,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS templates (
    id         SERIAL PRIMARY KEY,
    name       TEXT NOT NULL,
    subject    TEXT NOT NULL,
    body       TEXT NOT NULL,
    variables  JSONB,
    schema     JSONB,
    created_by INT NOT NULL DEFAULT 0,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS scheduled_jobs (
    id          SERIAL PRIMARY KEY,
    to_email    TEXT NOT NULL,
    template_id INT REFERENCES templates(id) ON DELETE SET NULL,
    subject     TEXT NOT NULL DEFAULT '',
    body        TEXT NOT NULL DEFAULT '',
    variables   JSONB,
    send_at     TIMESTAMPTZ NOT NULL,
    status      TEXT NOT NULL DEFAULT 'pending',
    error_text  TEXT,
    created_by  INT NOT NULL DEFAULT 0,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_scheduled_jobs_due ON scheduled_jobs (status, send_at);
`

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.New(cfg.AppEnv)

	conn, err := db.Connect(cfg.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer conn.Close()

	if _, err := conn.Exec(schema); err != nil {
		log.Fatal().Err(err).Msg("schema creation failed")
	}
	log.Info().Msg("schema ready")

	leads := []struct {
		name, email, company, status, assignedTo string
		services, tags                           []string
	}{
		{"Ana Morales", "ana@solaria.mx", "Solaria", "Nuevo", "dturner", []string{"web", "seo"}, []string{"vip"}},
		{"Luis Herrera", "luis@nortec.io", "Nortec", "Contactado", "dturner", []string{"branding"}, []string{"vip", "priority"}},
		{"Carla Ruiz", "carla@veltex.co", "Veltex", "Nuevo", "msalas", []string{"web"}, []string{"newsletter"}},
		{"Jorge Peña", "jorge@andamia.com", "Andamia", "Calificado", "msalas", []string{"ads", "seo"}, []string{}},
	}
	for _, l := range leads {
		_, err := conn.Exec(`
            INSERT INTO leads (name, email, company, services, status, assigned_to, tags)
            VALUES ($1, $2, $3, $4, $5, $6, $7)
            ON CONFLICT DO NOTHING
        `, l.name, l.email, l.company, pq.Array(l.services), l.status, l.assignedTo, pq.Array(l.tags))
		if err != nil {
			log.Fatal().Err(err).Str("email", l.email).Msg("lead seed failed")
		}
	}

	_, err = conn.Exec(`
        INSERT INTO templates (name, subject, body)
        VALUES ($1, $2, $3)
    `,
		"Bienvenida",
		"Hola {{name}}, gracias por contactarnos",
		"<p>Hola {{name}} de {{company}},</p><p>Recibimos tu interés en {{services}}. Te contactará {{assigned_to}}.</p>",
	)
	if err != nil {
		log.Fatal().Err(err).Msg("template seed failed")
	}

	log.Info().Msg("seed data inserted")
}
