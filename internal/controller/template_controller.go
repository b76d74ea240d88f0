package controller

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/leadpilot/crm-mailer/internal/auth"
	apperrors "github.com/leadpilot/crm-mailer/internal/errors"
	"github.com/leadpilot/crm-mailer/internal/model"
	"github.com/leadpilot/crm-mailer/internal/render"
	"github.com/leadpilot/crm-mailer/internal/service"
)

type TemplateController struct {
	Templates *service.TemplateService
}

// templateJSON decorates a template with the placeholder keys its
// subject and body reference, in first-seen order.
type templateJSON struct {
	model.Template
	Placeholders []string `json:"placeholders"`
}

func withPlaceholders(t *model.Template) templateJSON {
	keys := render.ExtractPlaceholders(t.Subject + " " + t.Body)
	return templateJSON{Template: *t, Placeholders: keys}
}

func (c *TemplateController) Create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name      string          `json:"name"`
		Subject   string          `json:"subject"`
		Body      string          `json:"body"`
		Variables json.RawMessage `json:"variables"`
		Schema    json.RawMessage `json:"schema"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperrors.NewValidation("invalid body: %v", err))
		return
	}

	identity := auth.FromContext(r.Context())
	t, err := c.Templates.Create(body.Name, body.Subject, body.Body, body.Variables, body.Schema, identity.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, withPlaceholders(t))
}

func (c *TemplateController) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperrors.NewValidation("invalid template id"))
		return
	}

	var upd service.TemplateUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, apperrors.NewValidation("invalid body: %v", err))
		return
	}

	t, err := c.Templates.Update(id, upd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, withPlaceholders(t))
}

func (c *TemplateController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperrors.NewValidation("invalid template id"))
		return
	}
	if err := c.Templates.Delete(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (c *TemplateController) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperrors.NewValidation("invalid template id"))
		return
	}
	t, err := c.Templates.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, withPlaceholders(t))
}

func (c *TemplateController) List(w http.ResponseWriter, r *http.Request) {
	templates, err := c.Templates.List()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": templates})
}
