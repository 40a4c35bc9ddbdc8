package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/BTreeMap/ThoughtWeaver/internal/models"
)

func validateTemplate(tmpl models.WorkflowTemplate) error {
	if tmpl.ID == "" {
		return errors.New("template id is empty")
	}
	if tmpl.Name == "" {
		return models.ErrEmptyName
	}
	return nil
}

func cloneTemplate(tmpl models.WorkflowTemplate) models.WorkflowTemplate {
	steps := make([]models.TemplateStep, len(tmpl.Steps))
	for i, s := range tmpl.Steps {
		s.AssistantIDs = append([]string(nil), s.AssistantIDs...)
		steps[i] = s
	}
	tmpl.Steps = steps
	return tmpl
}

func encodeSteps(steps []models.TemplateStep) (string, error) {
	if steps == nil {
		steps = []models.TemplateStep{}
	}
	b, err := json.Marshal(steps)
	if err != nil {
		return "", fmt.Errorf("failed to encode template steps: %w", err)
	}
	return string(b), nil
}

func decodeSteps(raw string) ([]models.TemplateStep, error) {
	var steps []models.TemplateStep
	if err := json.Unmarshal([]byte(raw), &steps); err != nil {
		return nil, fmt.Errorf("failed to decode template steps: %w", err)
	}
	return steps, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row rowScanner) (models.WorkflowTemplate, error) {
	var tmpl models.WorkflowTemplate
	var raw string
	var createdAt time.Time
	if err := row.Scan(&tmpl.ID, &tmpl.Name, &raw, &createdAt); err != nil {
		return tmpl, err
	}
	steps, err := decodeSteps(raw)
	if err != nil {
		return tmpl, err
	}
	tmpl.Steps = steps
	tmpl.CreatedAt = createdAt.UTC()
	return tmpl, nil
}
