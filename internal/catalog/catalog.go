// Package catalog exposes the static role, assistant and model catalogs.
//
// The catalogs are embedded YAML documents decoded once at first use. Lookups
// never fail: an unknown id resolves to the first entry of the catalog so that
// the workflow engine can always render a step.
package catalog

import (
	_ "embed"
	"fmt"
	"log/slog"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/BTreeMap/ThoughtWeaver/internal/models"
)

//go:embed data/roles.yaml
var rolesYAML []byte

//go:embed data/assistants.yaml
var assistantsYAML []byte

//go:embed data/models.yaml
var modelsYAML []byte

// Personality holds Big Five trait scores on a 0-100 scale.
type Personality struct {
	Openness          int `json:"openness" yaml:"openness"`
	Conscientiousness int `json:"conscientiousness" yaml:"conscientiousness"`
	Extraversion      int `json:"extraversion" yaml:"extraversion"`
	Agreeableness     int `json:"agreeableness" yaml:"agreeableness"`
	Neuroticism       int `json:"neuroticism" yaml:"neuroticism"`
}

// Assistant is an AI persona that can be attached to a conversation or step.
type Assistant struct {
	ID           string      `json:"id" yaml:"id"`
	Name         string      `json:"name" yaml:"name"`
	Description  string      `json:"description" yaml:"description"`
	Avatar       string      `json:"avatar" yaml:"avatar"`
	Color        string      `json:"color" yaml:"color"`
	SystemPrompt string      `json:"system_prompt" yaml:"system_prompt"`
	Opener       string      `json:"opener,omitempty" yaml:"opener"`
	Personality  Personality `json:"personality" yaml:"personality"`
}

// Model is a selectable language model.
type Model struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Provider    string `json:"provider" yaml:"provider"`
	Description string `json:"description" yaml:"description"`
}

// Catalog is a read-only view over the embedded catalogs.
type Catalog struct {
	roles      []models.Role
	assistants []Assistant
	models     []Model

	roleIdx      map[string]int
	assistantIdx map[string]int
	modelIdx     map[string]int
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
	defaultErr  error
)

// Default returns the catalog decoded from the embedded data. It panics if
// the embedded data is malformed, which is a build defect.
func Default() *Catalog {
	defaultOnce.Do(func() {
		defaultCat, defaultErr = Parse(rolesYAML, assistantsYAML, modelsYAML)
	})
	if defaultErr != nil {
		panic(fmt.Sprintf("catalog: embedded data is invalid: %v", defaultErr))
	}
	return defaultCat
}

// Parse decodes catalogs from YAML documents. Every catalog must contain at
// least one entry and ids must be unique.
func Parse(rolesDoc, assistantsDoc, modelsDoc []byte) (*Catalog, error) {
	c := &Catalog{}
	if err := yaml.Unmarshal(rolesDoc, &c.roles); err != nil {
		return nil, fmt.Errorf("failed to decode roles: %w", err)
	}
	if err := yaml.Unmarshal(assistantsDoc, &c.assistants); err != nil {
		return nil, fmt.Errorf("failed to decode assistants: %w", err)
	}
	if err := yaml.Unmarshal(modelsDoc, &c.models); err != nil {
		return nil, fmt.Errorf("failed to decode models: %w", err)
	}

	var err error
	if c.roleIdx, err = index("role", len(c.roles), func(i int) string { return c.roles[i].ID }); err != nil {
		return nil, err
	}
	if c.assistantIdx, err = index("assistant", len(c.assistants), func(i int) string { return c.assistants[i].ID }); err != nil {
		return nil, err
	}
	if c.modelIdx, err = index("model", len(c.models), func(i int) string { return c.models[i].ID }); err != nil {
		return nil, err
	}

	slog.Debug("Catalog.Parse: loaded", "roles", len(c.roles), "assistants", len(c.assistants), "models", len(c.models))
	return c, nil
}

func index(kind string, n int, id func(int) string) (map[string]int, error) {
	if n == 0 {
		return nil, fmt.Errorf("%s catalog is empty", kind)
	}
	idx := make(map[string]int, n)
	for i := 0; i < n; i++ {
		key := id(i)
		if key == "" {
			return nil, fmt.Errorf("%s at position %d has no id", kind, i)
		}
		if _, dup := idx[key]; dup {
			return nil, fmt.Errorf("duplicate %s id %q", kind, key)
		}
		idx[key] = i
	}
	return idx, nil
}

// Roles returns all roles in display order.
func (c *Catalog) Roles() []models.Role {
	out := make([]models.Role, len(c.roles))
	copy(out, c.roles)
	return out
}

// LookupRole returns the role with the given id and whether it exists.
func (c *Catalog) LookupRole(id string) (models.Role, bool) {
	i, ok := c.roleIdx[id]
	if !ok {
		return models.Role{}, false
	}
	return c.roles[i], true
}

// Role returns the role with the given id, or the first role when unknown.
func (c *Catalog) Role(id string) models.Role {
	if r, ok := c.LookupRole(id); ok {
		return r
	}
	slog.Debug("Catalog.Role: unknown role, using fallback", "id", id, "fallback", c.roles[0].ID)
	return c.roles[0]
}

// Assistants returns all assistants in catalog order.
func (c *Catalog) Assistants() []Assistant {
	out := make([]Assistant, len(c.assistants))
	copy(out, c.assistants)
	return out
}

// LookupAssistant returns the assistant with the given id and whether it exists.
func (c *Catalog) LookupAssistant(id string) (Assistant, bool) {
	i, ok := c.assistantIdx[id]
	if !ok {
		return Assistant{}, false
	}
	return c.assistants[i], true
}

// Assistant returns the assistant with the given id, or the first assistant
// when unknown.
func (c *Catalog) Assistant(id string) Assistant {
	if a, ok := c.LookupAssistant(id); ok {
		return a
	}
	slog.Debug("Catalog.Assistant: unknown assistant, using fallback", "id", id, "fallback", c.assistants[0].ID)
	return c.assistants[0]
}

// Models returns all models in catalog order.
func (c *Catalog) Models() []Model {
	out := make([]Model, len(c.models))
	copy(out, c.models)
	return out
}

// LookupModel returns the model with the given id and whether it exists.
func (c *Catalog) LookupModel(id string) (Model, bool) {
	i, ok := c.modelIdx[id]
	if !ok {
		return Model{}, false
	}
	return c.models[i], true
}

// Model returns the model with the given id, or the first model when unknown.
func (c *Catalog) Model(id string) Model {
	if m, ok := c.LookupModel(id); ok {
		return m
	}
	slog.Debug("Catalog.Model: unknown model, using fallback", "id", id, "fallback", c.models[0].ID)
	return c.models[0]
}
