package profile

import (
	"testing"

	"github.com/insightdelivered/statement-normalizer/internal/models"
)

func statementWithText(text string) models.Statement {
	return models.Statement{Pages: []models.Page{{Number: 1, Text: text}}}
}

func TestDetectScoring(t *testing.T) {
	p := Profile{Name: "ANZ", Keywords: []string{"ANZ", "AUSTRALIA AND NEW ZEALAND"}}

	tests := []struct {
		name     string
		text     string
		expected float64
	}{
		{"both keywords", "ANZ - Australia and New Zealand Banking Group", 1.0},
		{"one keyword", "anz internet banking", 0.5},
		{"no keywords", "some other bank", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Detect(statementWithText(tt.text)); got != tt.expected {
				t.Errorf("got %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestSelectPicksStrictMaximum(t *testing.T) {
	profiles := []Profile{
		{Name: "First", Keywords: []string{"ALPHA", "BETA"}},
		{Name: "Second", Keywords: []string{"GAMMA"}},
	}

	got := Select(statementWithText("gamma rays"), profiles)
	if got == nil || got.Name != "Second" {
		t.Fatalf("expected Second, got %+v", got)
	}
}

func TestSelectTieKeepsFirstRegistered(t *testing.T) {
	profiles := []Profile{
		{Name: "First", Keywords: []string{"SHARED"}},
		{Name: "Second", Keywords: []string{"SHARED"}},
	}

	got := Select(statementWithText("shared keyword"), profiles)
	if got == nil || got.Name != "First" {
		t.Fatalf("tie should keep first-registered profile, got %+v", got)
	}
}

func TestSelectNoMatch(t *testing.T) {
	if got := Select(statementWithText("nothing relevant"), DefaultProfiles()); got != nil {
		t.Errorf("expected nil profile, got %q", got.Name)
	}
}

func TestSelectDefaultProfiles(t *testing.T) {
	st := statementWithText("Westpac Banking Corporation\nDate  Details  Withdrawals  Deposits  Balance")
	got := Select(st, DefaultProfiles())
	if got == nil || got.Name != "Westpac" {
		t.Fatalf("expected Westpac, got %+v", got)
	}
}

func TestClean(t *testing.T) {
	p := Profile{Name: "X"}
	if got := p.Clean("  EFTPOS   COLES\t123  "); got != "EFTPOS COLES 123" {
		t.Errorf("whitespace not collapsed: %q", got)
	}
}
