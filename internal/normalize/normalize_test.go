package normalize

import (
	"testing"
	"time"

	"github.com/insightdelivered/statement-normalizer/internal/models"
	"github.com/insightdelivered/statement-normalizer/internal/profile"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
		ok       bool
	}{
		{"45.50", 45.50, true},
		{"$45.50", 45.50, true},
		{"1,200.00", 1200.00, true},
		{"-300.25", -300.25, true},
		{"(1,200.00)", -1200.00, true},
		{"", 0, false},
		{"-", 0, false},
		{".", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseAmount(tt.input)
			if ok != tt.ok {
				t.Fatalf("ok: got %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.expected {
				t.Errorf("got %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseDateDayFirst(t *testing.T) {
	got, err := ParseDate("01/02/2023")
	if err != nil {
		t.Fatal(err)
	}
	if got.Day() != 1 || got.Month() != time.February || got.Year() != 2023 {
		t.Errorf("expected 1 February 2023, got %s", got.Format("2006-01-02"))
	}
}

func TestParseDateFormats(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"15/01/2024", "2024-01-15"},
		{"2023-02-03", "2023-02-03"},
		{"3 Feb 2023", "2023-02-03"},
	}
	for _, tt := range tests {
		got, err := ParseDate(tt.input)
		if err != nil {
			t.Fatalf("ParseDate(%q): %v", tt.input, err)
		}
		if got.Format("2006-01-02") != tt.expected {
			t.Errorf("ParseDate(%q): got %s, want %s", tt.input, got.Format("2006-01-02"), tt.expected)
		}
	}
}

func TestParseDateRejectsGarbage(t *testing.T) {
	if _, err := ParseDate("not a date"); err == nil {
		t.Error("expected error for unparseable date")
	}
}

func TestInferMerchant(t *testing.T) {
	tests := []struct {
		name        string
		description string
		expected    string
	}{
		{"exact substring", "EFTPOS WOOLWORTHS METRO 1234", "WOOLWORTHS"},
		{"lowercase input", "card payment coles express", "COLES"},
		{"no candidate", "TRANSFER TO SAVINGS", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InferMerchant(tt.description, KnownMerchants)
			if tt.expected == "" {
				if got != nil {
					t.Errorf("expected nil, got %q", *got)
				}
				return
			}
			if got == nil || *got != tt.expected {
				t.Errorf("got %v, want %q", got, tt.expected)
			}
		})
	}
}

func rowOn(page int, raw map[string]string) models.ParsedRow {
	return models.ParsedRow{Page: page, Raw: raw}
}

func TestRowsDebitCreditReconciliation(t *testing.T) {
	rows := []models.ParsedRow{
		rowOn(1, map[string]string{"Date": "01/02/2023", "Description": "EFTPOS COLES", "Debit": "21.00", "Credit": "0.00", "Balance": "479.00"}),
		rowOn(1, map[string]string{"Date": "03/02/2023", "Description": "SALARY", "Debit": "0.00", "Credit": "2,500.00", "Balance": "2,979.00"}),
	}

	out := Rows(rows, nil, KnownMerchants)
	if len(out) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(out))
	}
	if out[0].Amount != -21.00 {
		t.Errorf("debit row amount: got %v, want -21", out[0].Amount)
	}
	if out[1].Amount != 2500.00 {
		t.Errorf("credit row amount: got %v, want 2500", out[1].Amount)
	}
	if out[0].Balance == nil || *out[0].Balance != 479.00 {
		t.Errorf("balance not carried: %v", out[0].Balance)
	}
}

func TestRowsCombinedAmountColumn(t *testing.T) {
	rows := []models.ParsedRow{
		rowOn(1, map[string]string{"Date": "05/02/2023", "Description": "RENT PAYMENT", "Amount": "(1,200.00)"}),
		rowOn(1, map[string]string{"Date": "06/02/2023", "Description": "REFUND", "Amount": "45.50"}),
	}

	out := Rows(rows, nil, KnownMerchants)
	if len(out) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(out))
	}
	if out[0].Amount != -1200.00 {
		t.Errorf("parenthesised amount: got %v, want -1200", out[0].Amount)
	}
	if out[0].Debit == nil || *out[0].Debit != 1200.00 {
		t.Errorf("debit magnitude: got %v", out[0].Debit)
	}
	if out[1].Amount != 45.50 || out[1].Credit == nil {
		t.Errorf("positive amount row: %+v", out[1])
	}
}

func TestRowsAmountIgnoredWhenDebitPresent(t *testing.T) {
	rows := []models.ParsedRow{
		rowOn(1, map[string]string{"Date": "05/02/2023", "Description": "FEE", "Debit": "5.00", "Amount": "99.00"}),
	}
	out := Rows(rows, nil, KnownMerchants)
	if len(out) != 1 || out[0].Amount != -5.00 {
		t.Fatalf("combined column should only apply when debit and credit net to zero: %+v", out)
	}
}

func TestRowsDropsUndatedRows(t *testing.T) {
	rows := []models.ParsedRow{
		rowOn(1, map[string]string{"Description": "OPENING BALANCE", "Balance": "500.00"}),
		rowOn(1, map[string]string{"Date": "garbage", "Description": "X", "Debit": "1.00"}),
		rowOn(1, map[string]string{"Date": "01/02/2023", "Description": "KEPT", "Debit": "1.00"}),
	}
	out := Rows(rows, nil, KnownMerchants)
	if len(out) != 1 || out[0].Description != "KEPT" {
		t.Fatalf("expected only the dated row to survive, got %+v", out)
	}
}

func TestRowsEmptyCellsAreAbsent(t *testing.T) {
	rows := []models.ParsedRow{
		rowOn(1, map[string]string{"Date": "01/02/2023", "Description": "PENDING", "Debit": "-", "Credit": "", "Balance": "."}),
	}
	out := Rows(rows, nil, KnownMerchants)
	if len(out) != 1 {
		t.Fatalf("expected 1 row, got %d", len(out))
	}
	if out[0].Debit != nil || out[0].Credit != nil || out[0].Balance != nil {
		t.Errorf("placeholder cells must stay absent, not zero: %+v", out[0])
	}
	if out[0].Amount != 0 {
		t.Errorf("amount: got %v, want 0", out[0].Amount)
	}
}

func TestRowsProfileColumnMapping(t *testing.T) {
	p := profile.Profile{
		Name: "Westpac",
		Columns: map[string]string{
			"Date":        "date",
			"Details":     "description",
			"Withdrawals": "debit",
			"Deposits":    "credit",
			"Balance":     "balance",
		},
	}
	rows := []models.ParsedRow{
		rowOn(2, map[string]string{"Date": "10/03/2023", "Details": "BPAY  TELSTRA", "Withdrawals": "89.00", "Deposits": "0.00", "Balance": "411.00"}),
	}
	out := Rows(rows, &p, KnownMerchants)
	if len(out) != 1 {
		t.Fatalf("expected 1 row, got %d", len(out))
	}
	if out[0].Description != "BPAY TELSTRA" {
		t.Errorf("description not cleaned via profile: %q", out[0].Description)
	}
	if out[0].Amount != -89.00 {
		t.Errorf("amount: got %v, want -89", out[0].Amount)
	}
	if out[0].Merchant == nil || *out[0].Merchant != "TELSTRA" {
		t.Errorf("merchant: got %v, want TELSTRA", out[0].Merchant)
	}
	if out[0].Page != 2 {
		t.Errorf("page: got %d, want 2", out[0].Page)
	}
}

func TestTransactionsSignSplit(t *testing.T) {
	date := time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)
	rows := []models.NormalizedRow{
		{Date: date, Description: "RENT", Amount: -1200, Page: 1},
		{Date: date, Description: "SALARY", Amount: 2500, Page: 1},
		{Date: date, Description: "PENDING", Amount: 0, Page: 1},
	}
	txns := Transactions(rows, "ANZ")
	if len(txns) != 3 {
		t.Fatalf("expected 3 transactions, got %d", len(txns))
	}

	rent := txns[0]
	if rent.Debit == nil || *rent.Debit != 1200 || rent.Credit != nil {
		t.Errorf("negative amount must set debit only: %+v", rent)
	}
	salary := txns[1]
	if salary.Credit == nil || *salary.Credit != 2500 || salary.Debit != nil {
		t.Errorf("positive amount must set credit only: %+v", salary)
	}
	zero := txns[2]
	if zero.Debit != nil || zero.Credit != nil {
		t.Errorf("zero amount must leave both unset: %+v", zero)
	}
	if rent.Bank != "ANZ" {
		t.Errorf("bank not attached: %q", rent.Bank)
	}
}

func TestTransactionIdentifiersDeterministic(t *testing.T) {
	date := time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)
	rows := []models.NormalizedRow{
		{Date: date, Description: "COFFEE", Amount: -4.50, Page: 1},
		{Date: date, Description: "COFFEE", Amount: -4.50, Page: 1},
	}

	first := Transactions(rows, "CBA")
	second := Transactions(rows, "CBA")

	if first[0].ID != second[0].ID {
		t.Error("same input must reproduce the same id")
	}
	if first[0].ID == first[1].ID {
		t.Error("row index must distinguish otherwise identical rows")
	}
	if len(first[0].ID) != 16 {
		t.Errorf("id length: got %d, want 16", len(first[0].ID))
	}
}
