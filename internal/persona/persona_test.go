package persona

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeSquared-Agency/intake/internal/phase"
)

var testDate = time.Date(2025, time.March, 7, 15, 0, 0, 0, time.UTC)

func TestDefault_CoversEveryPhase(t *testing.T) {
	s := Default()
	for p := phase.Discovery; p <= phase.Scheduling; p++ {
		got := s.Instruction(p, testDate)
		assert.Contains(t, got, "You are the AI assistant for Firswood Intelligence.")
		assert.Contains(t, got, "Company Knowledge:")
		assert.Contains(t, got, "Date: March 07, 2025")
	}
}

func TestInstruction_VariesByPhase(t *testing.T) {
	s := Default()
	discovery := s.Instruction(phase.Discovery, testDate)
	qualification := s.Instruction(phase.Qualification, testDate)
	scheduling := s.Instruction(phase.Scheduling, testDate)

	assert.NotEqual(t, discovery, qualification)
	assert.NotEqual(t, qualification, scheduling)
	assert.Contains(t, qualification, "one short question at a time")
	assert.Contains(t, scheduling, "https://firswood.ai/book")
	assert.NotContains(t, scheduling, "{booking_url}")
}

func TestInstruction_InvalidPhaseUsesDiscovery(t *testing.T) {
	s := Default()
	assert.Equal(t, s.Instruction(phase.Discovery, testDate), s.Instruction(phase.Phase(0), testDate))
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persona.yaml")
	doc := `
guidelines: Be brief.
phases:
  discovery: Answer questions.
  qualification: Ask one question.
  scheduling: Book the call.
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Be brief.\n\nBook the call.\n\nDate: March 07, 2025\n", s.Instruction(phase.Scheduling, testDate))
}

func TestLoad_EmptyPathIsDefault(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "Firswood Intelligence", s.Company)
}

func TestParse_RequiresEveryPhase(t *testing.T) {
	_, err := Parse([]byte("guidelines: x\nphases:\n  discovery: a\n  qualification: b\n"))
	assert.ErrorContains(t, err, "phases.scheduling")

	_, err = Parse([]byte("phases:\n  discovery: a\n"))
	assert.ErrorContains(t, err, "guidelines")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
