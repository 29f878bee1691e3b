// Package persona holds the natural-language instructions handed to the
// completion gateway. The copy is data: a YAML document keyed by phase,
// embedded at build time and optionally replaced by a file on disk.
package persona

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/intake/internal/phase"
)

//go:embed default.yaml
var defaultYAML []byte

// Set is an immutable collection of instructions, loaded once at startup.
type Set struct {
	Company    string `yaml:"company"`
	BookingURL string `yaml:"booking_url"`
	Knowledge  string `yaml:"knowledge"`
	Guidelines string `yaml:"guidelines"`
	Phases     struct {
		Discovery     string `yaml:"discovery"`
		Qualification string `yaml:"qualification"`
		Scheduling    string `yaml:"scheduling"`
	} `yaml:"phases"`
}

// Default returns the built-in persona set.
func Default() *Set {
	s, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("persona: embedded default is invalid: %v", err))
	}
	return s
}

// Load reads a persona file. An empty path returns the default set.
func Load(path string) (*Set, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read persona file: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse persona file %s: %w", path, err)
	}
	return s, nil
}

// Parse decodes and validates a persona document.
func Parse(data []byte) (*Set, error) {
	var s Set
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal persona: %w", err)
	}
	if strings.TrimSpace(s.Guidelines) == "" {
		return nil, fmt.Errorf("persona: guidelines are required")
	}
	for name, text := range map[string]string{
		"discovery":     s.Phases.Discovery,
		"qualification": s.Phases.Qualification,
		"scheduling":    s.Phases.Scheduling,
	} {
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("persona: phases.%s is required", name)
		}
	}
	return &s, nil
}

// Instruction builds the system instruction for a phase: operating
// guidelines, the phase persona, company knowledge and today's date.
func (s *Set) Instruction(p phase.Phase, now time.Time) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(s.Guidelines))
	sb.WriteString("\n\n")
	sb.WriteString(strings.TrimSpace(s.phaseText(p)))
	if k := strings.TrimSpace(s.Knowledge); k != "" {
		sb.WriteString("\n\nCompany Knowledge:\n")
		sb.WriteString(k)
	}
	sb.WriteString("\n\nDate: ")
	sb.WriteString(now.UTC().Format("January 02, 2006"))
	sb.WriteString("\n")
	return sb.String()
}

func (s *Set) phaseText(p phase.Phase) string {
	var text string
	switch p {
	case phase.Qualification:
		text = s.Phases.Qualification
	case phase.Scheduling:
		text = s.Phases.Scheduling
	default:
		text = s.Phases.Discovery
	}
	return strings.ReplaceAll(text, "{booking_url}", s.BookingURL)
}
