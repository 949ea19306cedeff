package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ultronhq/ultron/internal/models"
)

type document struct {
	Generator   string           `json:"generator" yaml:"generator"`
	GeneratedAt time.Time        `json:"generated_at" yaml:"generated_at"`
	Summary     Stats            `json:"summary" yaml:"summary"`
	Outcomes    []models.Outcome `json:"outcomes" yaml:"outcomes"`
}

func (r *Reporter) document() document {
	outcomes := r.outcomes
	if outcomes == nil {
		outcomes = []models.Outcome{}
	}
	return document{
		Generator:   AppName + " " + AppVersion,
		GeneratedAt: r.generatedAt.UTC(),
		Summary:     r.GetStats(),
		Outcomes:    outcomes,
	}
}

func (r *Reporter) writeJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r.document()); err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return nil
}

func (r *Reporter) writeYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r.document()); err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return enc.Close()
}
