package csvparse

import (
	"reflect"
	"testing"

	"github.com/hyperengineering/snsreport/internal/types"
)

func TestParse_HeaderAndRows(t *testing.T) {
	table, err := Parse("Date,Views,Likes\n2025-11-03,1000,50\nnot-a-date,500,10\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	wantHeader := []string{"Date", "Views", "Likes"}
	if !reflect.DeepEqual(table.Header, wantHeader) {
		t.Errorf("Header = %v, want %v", table.Header, wantHeader)
	}

	want := []types.RawRow{
		{"Date": "2025-11-03", "Views": "1000", "Likes": "50"},
		{"Date": "not-a-date", "Views": "500", "Likes": "10"},
	}
	if !reflect.DeepEqual(table.Rows, want) {
		t.Errorf("Rows = %v, want %v", table.Rows, want)
	}
}

func TestParse_FewerThanTwoLinesIsEmpty(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace only", "   \n\n  \n"},
		{"header only", "Date,Views\n"},
		{"header surrounded by blanks", "\n\nDate,Views\n\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if len(table.Rows) != 0 {
				t.Errorf("Rows = %v, want none", table.Rows)
			}
		})
	}
}

func TestParse_BlankFirstLineSkippedForHeader(t *testing.T) {
	table, err := Parse("\n   \nDate,Views\n2025-01-02,10\n\n2025-01-03,20\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(table.Header) != 2 || table.Header[0] != "Date" {
		t.Fatalf("Header = %v, want [Date Views]", table.Header)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2", len(table.Rows))
	}
	if table.Rows[1]["Views"] != "20" {
		t.Errorf("second row Views = %q, want %q", table.Rows[1]["Views"], "20")
	}
}

func TestParse_MissingAndExtraCells(t *testing.T) {
	table, err := Parse("a,b,c\n1\n1,2,3,4,5\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if got := table.Rows[0]; !reflect.DeepEqual(got, types.RawRow{"a": "1", "b": "", "c": ""}) {
		t.Errorf("short row = %v", got)
	}
	if got := table.Rows[1]; !reflect.DeepEqual(got, types.RawRow{"a": "1", "b": "2", "c": "3"}) {
		t.Errorf("long row = %v", got)
	}
}

func TestParse_TrimsAndStripsQuotes(t *testing.T) {
	table, err := Parse(`  "Date", "Title"` + "\n" + ` 2025-01-02 ,  "Hello"` + "\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if !reflect.DeepEqual(table.Header, []string{"Date", "Title"}) {
		t.Errorf("Header = %q", table.Header)
	}
	if table.Rows[0]["Title"] != "Hello" {
		t.Errorf("Title = %q, want %q", table.Rows[0]["Title"], "Hello")
	}
	if table.Rows[0]["Date"] != "2025-01-02" {
		t.Errorf("Date = %q, want %q", table.Rows[0]["Date"], "2025-01-02")
	}
}

func TestParse_QuotedCommaKeepsAlignment(t *testing.T) {
	table, err := Parse("Date,Title,Views\n2025-01-02,\"Hello, world\",\"1,234\"\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	row := table.Rows[0]
	if row["Title"] != "Hello, world" {
		t.Errorf("Title = %q, want %q", row["Title"], "Hello, world")
	}
	if row["Views"] != "1,234" {
		t.Errorf("Views = %q, want %q", row["Views"], "1,234")
	}
}

func TestParse_UnclosedQuoteStaysOnItsLine(t *testing.T) {
	table, err := Parse("Date,Title,Views\n2025-11-03,\"Oops,100\n2025-11-04,Fine,200\n2025-11-05,Fine,300\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(table.Rows) != 3 {
		t.Fatalf("len(Rows) = %d, want 3: %q", len(table.Rows), table.Rows)
	}
	want := types.RawRow{"Date": "2025-11-03", "Title": `"Oops`, "Views": "100"}
	if !reflect.DeepEqual(table.Rows[0], want) {
		t.Errorf("broken row = %q, want %q", table.Rows[0], want)
	}
	if table.Rows[1]["Views"] != "200" || table.Rows[2]["Views"] != "300" {
		t.Errorf("later rows = %q", table.Rows[1:])
	}
}

func TestParse_QuotedNewlineDoesNotJoinLines(t *testing.T) {
	table, err := Parse("Title,Views\n\"first\nsecond\",5\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(table.Rows) != 2 {
		t.Errorf("len(Rows) = %d, want 2: %q", len(table.Rows), table.Rows)
	}
}

func TestParse_BareQuoteInField(t *testing.T) {
	table, err := Parse("Title,Views\nShe said \"hi\",7\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := table.Rows[0]; got["Title"] != `She said "hi"` || got["Views"] != "7" {
		t.Errorf("row = %q", got)
	}
}

func TestParse_StripsBOMAndCRLF(t *testing.T) {
	table, err := Parse("\ufeffDate,Views\r\n2025-01-02,5\r\n")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if table.Header[0] != "Date" {
		t.Errorf("Header[0] = %q, want %q", table.Header[0], "Date")
	}
	if table.Rows[0]["Views"] != "5" {
		t.Errorf("Views = %q, want %q", table.Rows[0]["Views"], "5")
	}
}

func TestStripQuotes(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`"x"`, "x"},
		{`""x""`, `"x"`},
		{`"`, `"`},
		{`x"`, `x"`},
		{"plain", "plain"},
		{`""`, ""},
	}
	for _, tt := range tests {
		if got := StripQuotes(tt.in); got != tt.want {
			t.Errorf("StripQuotes(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
