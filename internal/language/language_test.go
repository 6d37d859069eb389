package language

import (
	"strings"
	"testing"

	apperrors "github.com/govai-bd/govai/internal/pkg/errors"
)

func TestDetect(t *testing.T) {
	d := NewDetector()

	tests := []struct {
		name  string
		input string
		want  Language
	}{
		{"bengali", "পাসপোর্ট করতে কি কি লাগবে?", Bengali},
		{"bengali with latin acronym", "NID কার্ড হারিয়ে গেলে কী করব", Bengali},
		{"banglish passport", "passport korte ki ki lagbe?", Banglish},
		{"banglish suffix", "ami nid card er jonno apply korchhi", Banglish},
		{"english", "How do I apply for a passport?", English},
		{"english no markers", "driving license renewal fee", English},
		{"tie defaults to english", "ki is", English},
		{"digits only", "2024", English},
		{"punctuation only", "???", English},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.Detect(tt.input)
			if err != nil {
				t.Fatalf("Detect(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Detect(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestDetect_Blank(t *testing.T) {
	d := NewDetector()

	for _, input := range []string{"", "   ", "\n\t "} {
		_, err := d.Detect(input)
		if !apperrors.IsInvalidQuery(err) {
			t.Errorf("Detect(%q) error = %v, want INVALID_QUERY", input, err)
		}
	}
}

func TestDetect_AlwaysValidTag(t *testing.T) {
	d := NewDetector()
	inputs := []string{
		"a", "ki", "জন্ম", "x y z", "passport", "ট্যাক্স return kivabe dibo",
		strings.Repeat("hobe ", 50), "১২৩৪",
	}
	for _, input := range inputs {
		got, err := d.Detect(input)
		if err != nil {
			t.Fatalf("Detect(%q) error = %v", input, err)
		}
		if !got.Valid() {
			t.Errorf("Detect(%q) = %q, not a valid tag", input, got)
		}
	}
}

func TestAnalyze(t *testing.T) {
	a, err := NewDetector().Analyze("passport korte ki ki lagbe?")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if a.MarkerHits != 4 || a.EnglishHits != 0 {
		t.Errorf("hits = %d markers / %d english, want 4/0", a.MarkerHits, a.EnglishHits)
	}
	if a.BengaliRatio != 0 {
		t.Errorf("BengaliRatio = %v, want 0", a.BengaliRatio)
	}
}

func TestNewDetectorWithThreshold(t *testing.T) {
	// Eight latin letters and three Bengali code points.
	input := "passport করব"

	if got, _ := NewDetector().Detect(input); got == Bengali {
		t.Errorf("default threshold classified %q as Bengali", input)
	}
	if got, _ := NewDetectorWithThreshold(0.2).Detect(input); got != Bengali {
		t.Errorf("threshold 0.2 got %s, want bn", got)
	}
	if d := NewDetectorWithThreshold(5); d.threshold != DefaultBengaliThreshold {
		t.Errorf("out of range threshold not reset: %v", d.threshold)
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  passport   korte\tki \n lagbe ", "passport korte ki lagbe"},
		{"<script>alert</script>", "scriptalert/script"},
		{`{nid} [card] \ fee`, "nid card  fee"},
		{"   ", ""},
		{"পাসপোর্ট  ফি", "পাসপোর্ট ফি"},
	}

	for _, tt := range tests {
		if got := Sanitize(tt.input); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestIsGovernmentRelated(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"passport korte ki ki lagbe?", true},
		{"How to renew a Driving LICENSE", true},
		{"জন্ম নিবন্ধন সংশোধন", true},
		{"best biryani in dhaka", false},
	}

	for _, tt := range tests {
		if got := IsGovernmentRelated(tt.input); got != tt.want {
			t.Errorf("IsGovernmentRelated(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
