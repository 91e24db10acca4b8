package writer

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestXLSXWrite(t *testing.T) {
	var buf bytes.Buffer
	w := &XLSXWriter{}
	if err := w.Write(&buf, sampleBundle()); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "date" || rows[0][1] != "description" {
		t.Errorf("unexpected header row: %v", rows[0])
	}
	if rows[1][4] != "-21.00" {
		t.Errorf("amount cell: got %q, want -21.00", rows[1][4])
	}
	if rows[2][1] != "SALARY" || rows[2][6] != "2500.00" {
		t.Errorf("credit row: %v", rows[2])
	}
}
