package service

import (
	"encoding/json"
	"strings"

	apperrors "github.com/leadpilot/crm-mailer/internal/errors"
	"github.com/leadpilot/crm-mailer/internal/model"
	"github.com/leadpilot/crm-mailer/internal/repository"
)

type TemplateService struct {
	Templates repository.TemplateRepositoryInterface
}

// TemplateUpdate is a partial update: nil fields keep their current
// value.
type TemplateUpdate struct {
	Name      *string         `json:"name"`
	Subject   *string         `json:"subject"`
	Body      *string         `json:"body"`
	Variables json.RawMessage `json:"variables"`
	Schema    json.RawMessage `json:"schema"`
}

func (s *TemplateService) Create(name, subject, body string, variables, schema json.RawMessage, createdBy int) (*model.Template, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(subject) == "" || strings.TrimSpace(body) == "" {
		return nil, apperrors.NewValidation("name, subject and body are required")
	}
	t := &model.Template{
		Name:      name,
		Subject:   subject,
		Body:      body,
		Variables: variables,
		Schema:    schema,
		CreatedBy: createdBy,
	}
	if err := s.Templates.Create(t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TemplateService) Update(id int, upd TemplateUpdate) (*model.Template, error) {
	t, err := s.Templates.GetByID(id)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		t.Name = *upd.Name
	}
	if upd.Subject != nil {
		t.Subject = *upd.Subject
	}
	if upd.Body != nil {
		t.Body = *upd.Body
	}
	if upd.Variables != nil {
		t.Variables = upd.Variables
	}
	if upd.Schema != nil {
		t.Schema = upd.Schema
	}
	if strings.TrimSpace(t.Name) == "" || strings.TrimSpace(t.Subject) == "" || strings.TrimSpace(t.Body) == "" {
		return nil, apperrors.NewValidation("name, subject and body cannot be blank")
	}
	if err := s.Templates.Update(t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TemplateService) Delete(id int) error {
	return s.Templates.Delete(id)
}

func (s *TemplateService) Get(id int) (*model.Template, error) {
	return s.Templates.GetByID(id)
}

// List returns templates newest first.
func (s *TemplateService) List() ([]model.Template, error) {
	return s.Templates.List()
}
