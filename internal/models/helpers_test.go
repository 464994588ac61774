package models

import "testing"

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "ab12", "AB12"},
		{"already normalized", "AB12", "AB12"},
		{"surrounding whitespace", "  cd34\t", "CD34"},
		{"mixed case", "eF56", "EF56"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"digits untouched", "1234", "1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeKey(tt.in)
			if got != tt.want {
				t.Errorf("NormalizeKey(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCountWords(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{"empty", "", 0},
		{"whitespace only", "  \n\t ", 0},
		{"single word", "excellent", 1},
		{"sentence", "Great work on the essay structure.", 6},
		{"multiline", "Strong thesis.\n\nNeeds citations.", 4},
		{"collapsed spaces", "one   two", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CountWords(tt.in)
			if got != tt.want {
				t.Errorf("CountWords(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestReviewStatusSignedOff(t *testing.T) {
	signed := []ReviewStatus{StatusApproved, StatusEdited}
	unsigned := []ReviewStatus{StatusReadyForReview, StatusNeedsAttention, StatusError}

	for _, s := range signed {
		if !s.SignedOff() {
			t.Errorf("%s.SignedOff() = false, want true", s)
		}
	}
	for _, s := range unsigned {
		if s.SignedOff() {
			t.Errorf("%s.SignedOff() = true, want false", s)
		}
	}
}

func TestJobStatusTerminal(t *testing.T) {
	if JobSubmitted.Terminal() || JobProcessing.Terminal() {
		t.Error("non-terminal status reported terminal")
	}
	if !JobComplete.Terminal() || !JobError.Terminal() {
		t.Error("terminal status reported non-terminal")
	}
}
