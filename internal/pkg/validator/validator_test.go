package validator

import (
	"testing"
)

func TestIsEmpty(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"abc", false},
		{" abc ", false},
	}
	for _, c := range cases {
		got := IsEmpty(c.input)
		if got != c.want {
			t.Errorf("IsEmpty(%q) = %v, want %v", c.input, got, c.want)
		}
	}
}

func TestIsValidDate(t *testing.T) {
	valid := []string{"2026-01-31", "2000-02-29"}
	invalid := []string{"2026-13-01", "2026-02-30", "31-01-2026", "2026/01/31", ""}
	for _, date := range valid {
		if _, ok := IsValidDate(date); !ok {
			t.Errorf("IsValidDate(%q) = false, want true", date)
		}
	}
	for _, date := range invalid {
		if _, ok := IsValidDate(date); ok {
			t.Errorf("IsValidDate(%q) = true, want false", date)
		}
	}
}

func TestIsValidCurrencyCode(t *testing.T) {
	valid := []string{"LAK", "USD", "THB", "EUR"}
	invalid := []string{"lak", "US", "USDT", "U$D", "", "12A"}
	for _, code := range valid {
		if !IsValidCurrencyCode(code) {
			t.Errorf("IsValidCurrencyCode(%q) = false, want true", code)
		}
	}
	for _, code := range invalid {
		if IsValidCurrencyCode(code) {
			t.Errorf("IsValidCurrencyCode(%q) = true, want false", code)
		}
	}
}

func TestIsValidUUID(t *testing.T) {
	valid := []string{
		"123e4567-e89b-12d3-a456-426614174000",
		"123E4567-E89B-12D3-A456-426614174000",
	}
	invalid := []string{
		"123e4567e89b12d3a456426614174000", // missing dashes
		"g23e4567-e89b-12d3-a456-426614174000",
		"123e4567-e89b-2d3-a456-426614174000", // short third group
		"123e4567-e89b-12d3-c456-426614174000",
		"",
	}
	for _, id := range valid {
		if !IsValidUUID(id) {
			t.Errorf("IsValidUUID(%q) = false, want true", id)
		}
	}
	for _, id := range invalid {
		if IsValidUUID(id) {
			t.Errorf("IsValidUUID(%q) = true, want false", id)
		}
	}
}

func TestValidationErrors(t *testing.T) {
	errs := ValidationErrors{
		{Field: "year", Message: "must be between 2000 and 2100"},
		{Field: "month", Message: "must be between 1 and 12"},
	}

	if errs.Error() != "year: must be between 2000 and 2100; month: must be between 1 and 12" {
		t.Errorf("unexpected Error(): %q", errs.Error())
	}

	m := errs.ToMap()
	if len(m) != 2 || m["year"] == "" || m["month"] == "" {
		t.Errorf("unexpected ToMap(): %v", m)
	}
}
