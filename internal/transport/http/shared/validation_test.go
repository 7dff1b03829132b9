package shared

import (
	"testing"
	"time"
)

func TestValidatorDate(t *testing.T) {
	v := NewValidator()
	parsed, ok := v.Date("startDate", "2025-03-10")
	if !ok || parsed.IsZero() {
		t.Fatalf("expected valid date, got ok=%v parsed=%v", ok, parsed)
	}
	if v.HasIssues() {
		t.Fatalf("unexpected issues: %+v", v.Issues())
	}

	if _, ok := v.Date("endDate", "10/03/2025"); ok {
		t.Fatal("expected rejection of non ISO date")
	}
	if !v.HasIssues() {
		t.Fatal("expected an issue recorded")
	}
}

func TestValidatorDateOrder(t *testing.T) {
	v := NewValidator()
	start := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	v.DateOrder("startDate", start, "endDate", end)
	if len(v.Issues()) != 2 {
		t.Fatalf("expected issues on both fields, got %+v", v.Issues())
	}
}

func TestValidatorEnum(t *testing.T) {
	v := NewValidator()
	v.Enum("requestType", "Full_Day", []string{"full_day", "half_day_morning"}, "bad value")
	if v.HasIssues() {
		t.Fatal("enum match should be case insensitive")
	}
	v.Enum("requestType", "quarter_day", []string{"full_day"}, "bad value")
	if !v.HasIssues() {
		t.Fatal("expected enum violation")
	}
}

func TestValidatorIssuesSorted(t *testing.T) {
	v := NewValidator()
	v.Add("endDate", "zzz")
	v.Add("endDate", "aaa")
	v.Add("startDate", "mmm")
	issues := v.Issues()
	if issues[0].Field != "endDate" || issues[0].Reason != "aaa" {
		t.Fatalf("expected deterministic ordering, got %+v", issues)
	}
	if issues[2].Field != "startDate" {
		t.Fatalf("expected startDate last, got %+v", issues)
	}
}

func TestParseDateFormats(t *testing.T) {
	if _, err := ParseDate("2025-03-10"); err != nil {
		t.Fatalf("plain date: %v", err)
	}
	if _, err := ParseDate("2025-03-10T08:00:00Z"); err != nil {
		t.Fatalf("rfc3339: %v", err)
	}
	if parsed, err := ParseDate(""); err != nil || !parsed.IsZero() {
		t.Fatalf("empty input should be zero value, got %v %v", parsed, err)
	}
}
