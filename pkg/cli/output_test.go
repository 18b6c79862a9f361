package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func sampleTable() *Table {
	table := NewTable("ID", "NAME", "RISK")
	table.Append("a-1", "triage-bot", "high")
	table.Append("a-2", "faq, support", "minimal")
	table.Append("a-3")
	return table
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{" csv ", FormatCSV, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTable_AppendPads(t *testing.T) {
	table := sampleTable()
	if len(table.Rows[2]) != 3 {
		t.Fatalf("short row not padded: %v", table.Rows[2])
	}
}

func TestTextFormatter_Table(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := NewFormatter(FormatText).FormatTo(buf, sampleTable()); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("lines = %d, want 4:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "ID   NAME") {
		t.Errorf("header not aligned: %q", lines[0])
	}
	if strings.Index(lines[1], "triage-bot") != strings.Index(lines[0], "NAME") {
		t.Errorf("columns not aligned:\n%s", buf.String())
	}
}

func TestTextFormatter_Value(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := (&TextFormatter{}).FormatTo(buf, "plain message"); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "plain message\n" {
		t.Errorf("got %q", buf.String())
	}
}

func TestCSVFormatter(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := NewFormatter(FormatCSV).FormatTo(buf, sampleTable()); err != nil {
		t.Fatal(err)
	}

	want := "ID,NAME,RISK\na-1,triage-bot,high\na-2,\"faq, support\",minimal\na-3,,\n"
	if buf.String() != want {
		t.Errorf("csv = %q, want %q", buf.String(), want)
	}

	if err := NewFormatter(FormatCSV).FormatTo(buf, map[string]int{"n": 1}); err == nil {
		t.Error("expected error for non-table data")
	}
}

func TestJSONFormatter_Table(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := NewFormatter(FormatJSON).FormatTo(buf, sampleTable()); err != nil {
		t.Fatal(err)
	}

	var rows []map[string]string
	if err := json.Unmarshal(buf.Bytes(), &rows); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(rows) != 3 || rows[1]["name"] != "faq, support" {
		t.Errorf("rows = %v", rows)
	}
}

func TestRender_PrefersRawForJSON(t *testing.T) {
	raw := map[string]any{"overall_score": 87.5}

	buf := &bytes.Buffer{}
	if err := Render(buf, FormatJSON, sampleTable(), raw); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"overall_score": 87.5`) {
		t.Errorf("json = %s", buf.String())
	}

	buf.Reset()
	if err := Render(buf, FormatCSV, sampleTable(), raw); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "ID,NAME,RISK") {
		t.Errorf("csv = %s", buf.String())
	}
}
