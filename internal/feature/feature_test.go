package feature

import (
	"testing"

	"gradeflow/internal/models"
)

func TestByName(t *testing.T) {
	tests := []struct {
		name     string
		wantSlug string
		wantErr  bool
	}{
		{name: "feedback", wantSlug: "feedback"},
		{name: "narratives", wantSlug: "narratives"},
		{name: "essays", wantErr: true},
		{name: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ByName(tt.name)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ByName() error = %v", err)
			}
			if f.Slug != tt.wantSlug {
				t.Errorf("Slug = %q, want %q", f.Slug, tt.wantSlug)
			}
		})
	}
}

func TestStepIndex(t *testing.T) {
	if got := GradingFeedback.StepIndex(StepReview); got != 4 {
		t.Errorf("StepIndex(review) = %d, want 4", got)
	}
	if got := GradingFeedback.StepIndex(StepSetup); got != 1 {
		t.Errorf("StepIndex(setup) = %d, want 1", got)
	}

	empty := Feature{}
	if got := empty.StepIndex(StepReview); got != 0 {
		t.Errorf("StepIndex on empty feature = %d, want 0", got)
	}
}

func TestExportFieldContract(t *testing.T) {
	it := models.ResultItem{
		Key:       "AB12",
		Name:      "Alice B.",
		Content:   "Clear thesis and strong evidence.",
		Status:    models.StatusApproved,
		WordCount: 5,
	}

	// Both features share the id/name/status/words columns; only the
	// content column is named differently.
	for _, tt := range []struct {
		feat          Feature
		contentColumn string
	}{
		{GradingFeedback, "feedback"},
		{NarrativeSynthesis, "narrative"},
	} {
		t.Run(tt.feat.Name, func(t *testing.T) {
			got := map[string]string{}
			for _, f := range tt.feat.ExportFields {
				got[f.Name] = f.Value(it)
			}
			if got["student_id"] != "AB12" || got["student"] != "Alice B." {
				t.Errorf("identity columns wrong: %v", got)
			}
			if got[tt.contentColumn] != it.Content {
				t.Errorf("%s column = %q", tt.contentColumn, got[tt.contentColumn])
			}
			if got["status"] != "approved" || got["words"] != "5" {
				t.Errorf("status/words columns wrong: %v", got)
			}
		})
	}
}

func TestRequiredSetupDiffersPerFeature(t *testing.T) {
	if len(GradingFeedback.RequiredSetup) == 0 || len(NarrativeSynthesis.RequiredSetup) == 0 {
		t.Fatal("features must require setup fields")
	}
	if GradingFeedback.RequiredSetup[0] == NarrativeSynthesis.RequiredSetup[0] {
		t.Error("features should lead with different setup fields")
	}
}
