package output

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"table", FormatTable, false},
		{"", FormatTable, false},
		{"json", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"yml", FormatYAML, false},
		{" table ", FormatTable, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPrinterJSON(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatJSON, false)

	if err := p.Print(map[string]int{"count": 3}); err != nil {
		t.Fatalf("Print() failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"count": 3`) {
		t.Errorf("output = %q, want JSON with count", buf.String())
	}
}

func TestPrinterYAML(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatYAML, false)

	if err := p.Print(map[string]string{"bucket": "docs"}); err != nil {
		t.Fatalf("Print() failed: %v", err)
	}
	if !strings.Contains(buf.String(), "bucket: docs") {
		t.Errorf("output = %q, want YAML with bucket", buf.String())
	}
}

func TestPrinterTable(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatTable, false)

	table := NewTableData("Bucket", "Key")
	table.AddRow("docs", "readme.txt")
	table.AddRow("videos", "movie.mp4")

	if err := p.Print(table); err != nil {
		t.Fatalf("Print() failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"BUCKET", "KEY", "docs", "movie.mp4"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestPrinterTableFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, FormatTable, false)

	if err := p.Print(map[string]bool{"plain": true}); err != nil {
		t.Fatalf("Print() failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"plain": true`) {
		t.Errorf("output = %q, want JSON fallback", buf.String())
	}
}
