package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestMessageRecord_MarshalJSON_Unenriched(t *testing.T) {
	rec := NewUnenrichedRecord("m1", "t1", "Alice <a@x.com>", "Hello", "snip", "body", 1700000000000)

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("expected valid json, got %v", err)
	}

	if out["processed"] != false {
		t.Errorf("expected processed=false, got %v", out["processed"])
	}
	if out["category"] != PendingCategory {
		t.Errorf("expected category %q, got %v", PendingCategory, out["category"])
	}
	if out["summary"] != PendingSummary {
		t.Errorf("expected summary %q, got %v", PendingSummary, out["summary"])
	}
	if out["threadId"] != "t1" {
		t.Errorf("expected threadId t1, got %v", out["threadId"])
	}
}

func TestMessageRecord_EnrichLeavesOriginalUntouched(t *testing.T) {
	rec := NewUnenrichedRecord("m1", "t1", "a", "s", "", "b", 1)

	enriched := rec.Enrich(CategorySpam, "junk")

	if rec.Processed() {
		t.Error("expected original record to stay unenriched")
	}
	if !enriched.Processed() {
		t.Fatal("expected enriched copy to be processed")
	}
	if enriched.CategoryLabel() != "Spam" || enriched.SummaryText() != "junk" {
		t.Errorf("unexpected enrichment: %s / %s", enriched.CategoryLabel(), enriched.SummaryText())
	}

	data, _ := json.Marshal(enriched)
	var back MessageRecord
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if back.Enrichment == nil || back.Enrichment.Category != CategorySpam {
		t.Errorf("expected enrichment to survive json, got %+v", back.Enrichment)
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in     string
		want   Category
		wantOK bool
	}{
		{"business", CategoryBusiness, true},
		{" PROMOTIONAL ", CategoryPromotional, true},
		{"Spam", CategorySpam, true},
		{"Processing...", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseCategory(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseCategory(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestRestoreEnrichment_UnprocessedIgnoresPlaceholders(t *testing.T) {
	if e := RestoreEnrichment(false, PendingCategory, PendingSummary); e != nil {
		t.Errorf("expected nil enrichment, got %+v", e)
	}
	e := RestoreEnrichment(true, "personal", "hi")
	if e == nil || !strings.EqualFold(string(e.Category), "Personal") {
		t.Errorf("expected Personal enrichment, got %+v", e)
	}
}
