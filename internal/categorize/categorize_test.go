package categorize

import "testing"

const rulesYAML = `
categories:
  rent:
    - RENT
  bnpl:
    - AFTERPAY
    - ZIP
  groceries:
    - WOOLWORTHS
    - COLES
  fees:
    - FEE
    - OVERDRAWN
`

func TestParsePreservesRuleOrder(t *testing.T) {
	c, err := Parse([]byte(rulesYAML))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"rent", "bnpl", "groceries", "fees"}
	got := c.Categories()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("category %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCategorizeFirstMatchWins(t *testing.T) {
	c, err := Parse([]byte(rulesYAML))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		description string
		expected    string
	}{
		{"DIRECT DEBIT RENT 123 MAIN ST", "rent"},
		{"AFTERPAY INSTALMENT", "bnpl"},
		{"afterpay instalment", "bnpl"}, // patterns are case-insensitive
		{"EFTPOS WOOLWORTHS METRO", "groceries"},
		{"MONTHLY ACCOUNT FEE", "fees"},
		{"TRANSFER TO SAVINGS", ""},
	}
	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			got := c.Categorize(tt.description)
			if tt.expected == "" {
				if got != nil {
					t.Errorf("expected no category, got %q", *got)
				}
				return
			}
			if got == nil || *got != tt.expected {
				t.Errorf("got %v, want %q", got, tt.expected)
			}
		})
	}
}

func TestCategorizeEarlierRuleShadowsLater(t *testing.T) {
	c, err := New(
		[]string{"bnpl", "fees"},
		map[string][]string{
			"bnpl": {"ZIP"},
			"fees": {"ZIP", "FEE"},
		},
	)
	if err != nil {
		t.Fatal(err)
	}
	got := c.Categorize("ZIP PAY PURCHASE")
	if got == nil || *got != "bnpl" {
		t.Errorf("expected bnpl (declared first), got %v", got)
	}
}

func TestNewRejectsBadPattern(t *testing.T) {
	_, err := New([]string{"broken"}, map[string][]string{"broken": {"("}})
	if err == nil {
		t.Fatal("expected error for invalid pattern")
	}
}

func TestParseEmptyDocument(t *testing.T) {
	c, err := Parse([]byte(""))
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Categorize("ANYTHING"); got != nil {
		t.Errorf("empty rule set must not categorize, got %q", *got)
	}
}

func TestParseRejectsNonMapping(t *testing.T) {
	if _, err := Parse([]byte("categories:\n  - not\n  - a\n  - mapping\n")); err == nil {
		t.Fatal("expected error for sequence categories block")
	}
}
