package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateUTF8(t *testing.T) {
	if err := ValidateUTF8("csv", "Date,タイトル\n"); err != nil {
		t.Errorf("ValidateUTF8(valid) = %v, want nil", err)
	}

	err := ValidateUTF8("csv", string([]byte{0xff, 0xfe}))
	if err == nil {
		t.Fatal("ValidateUTF8(invalid) = nil, want error")
	}
	if err.Field != "csv" {
		t.Errorf("error.Field = %q, want %q", err.Field, "csv")
	}
}

func TestValidateNoNullBytes(t *testing.T) {
	if err := ValidateNoNullBytes("name", "Acme"); err != nil {
		t.Errorf("ValidateNoNullBytes(clean) = %v, want nil", err)
	}
	if err := ValidateNoNullBytes("name", "Ac\x00me"); err == nil {
		t.Error("ValidateNoNullBytes(with null) = nil, want error")
	}
}

func TestValidateMaxLength_CountsRunes(t *testing.T) {
	if err := ValidateMaxLength("title", "月次レポート", 6); err != nil {
		t.Errorf("6 runes at limit 6 = %v, want nil", err)
	}
	err := ValidateMaxLength("title", "月次レポート!", 6)
	if err == nil {
		t.Fatal("7 runes at limit 6 = nil, want error")
	}
	if !strings.Contains(err.Message, "6") {
		t.Errorf("Message = %q, should mention the limit", err.Message)
	}
}

func TestValidateULID(t *testing.T) {
	tests := []struct {
		name  string
		value string
		valid bool
	}{
		{"valid", "01ARZ3NDEKTSV4RRFFQ69G5FAV", true},
		{"lowercase", "01arz3ndektsv4rrffq69g5fav", true},
		{"too short", "01ARZ3NDEK", false},
		{"too long", "01ARZ3NDEKTSV4RRFFQ69G5FAVX", false},
		{"excluded letter", "01ARZ3NDEKTSV4RRFFQ69G5FAI", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateULID("id", tt.value)
			if (err == nil) != tt.valid {
				t.Errorf("ValidateULID(%q) = %v, valid want %v", tt.value, err, tt.valid)
			}
		})
	}
}

func TestValidateRequired(t *testing.T) {
	for _, v := range []string{"", "   ", "\t\n"} {
		if err := ValidateRequired("name", v); err == nil {
			t.Errorf("ValidateRequired(%q) = nil, want error", v)
		}
	}
	if err := ValidateRequired("name", "x"); err != nil {
		t.Errorf("ValidateRequired(x) = %v, want nil", err)
	}
}

func TestValidateEnum_CaseSensitive(t *testing.T) {
	allowed := []string{"monthly", "weekly"}
	if err := ValidateEnum("kpi_type", "weekly", allowed); err != nil {
		t.Errorf("ValidateEnum(weekly) = %v, want nil", err)
	}
	err := ValidateEnum("kpi_type", "Weekly", allowed)
	if err == nil {
		t.Fatal("ValidateEnum(Weekly) = nil, want error")
	}
	if !strings.Contains(err.Message, "monthly, weekly") {
		t.Errorf("Message = %q, should list allowed values", err.Message)
	}
}

func TestValidateDateMonthWeek(t *testing.T) {
	tests := []struct {
		name  string
		fn    func(string, string) *ValidationError
		value string
		valid bool
	}{
		{"date ok", ValidateDate, "2025-11-03", true},
		{"date leap day", ValidateDate, "2024-02-29", true},
		{"date not leap", ValidateDate, "2025-02-29", false},
		{"date unpadded", ValidateDate, "2025-1-3", false},
		{"month ok", ValidateMonth, "2025-11", true},
		{"month 13", ValidateMonth, "2025-13", false},
		{"month with day", ValidateMonth, "2025-11-01", false},
		{"week ok", ValidateWeek, "2025-W45", true},
		{"week 53", ValidateWeek, "2026-W53", true},
		{"week 00", ValidateWeek, "2025-W00", false},
		{"week 54", ValidateWeek, "2025-W54", false},
		{"week lowercase", ValidateWeek, "2025-w45", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn("f", tt.value)
			if (err == nil) != tt.valid {
				t.Errorf("validate(%q) = %v, valid want %v", tt.value, err, tt.valid)
			}
		})
	}
}

func TestValidateDateOrder(t *testing.T) {
	if err := ValidateDateOrder("start", "2025-11-01", "2025-11-01"); err != nil {
		t.Errorf("same day = %v, want nil", err)
	}
	if err := ValidateDateOrder("start", "2025-11-02", "2025-11-01"); err == nil {
		t.Error("start after end = nil, want error")
	}
}

func TestCollector(t *testing.T) {
	var c Collector
	if c.HasErrors() || c.Err() != nil {
		t.Fatal("empty collector should have no errors")
	}

	c.Add(nil)
	c.Add(ValidateRequired("name", ""))
	c.Add(ValidateNonNegative("target_value", -1))

	if len(c.Errors()) != 2 {
		t.Fatalf("len(Errors) = %d, want 2", len(c.Errors()))
	}

	err := c.Err()
	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("Err() = %T, want *Error", err)
	}
	if verr.Fields[0].Field != "name" || verr.Fields[1].Field != "target_value" {
		t.Errorf("Fields = %+v", verr.Fields)
	}
	if !strings.Contains(err.Error(), "name is required") {
		t.Errorf("Error() = %q", err.Error())
	}
}
