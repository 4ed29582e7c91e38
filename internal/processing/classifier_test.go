package processing

import (
	"context"
	"testing"

	"github.com/vidmill/videos-ms-go/internal/db"
)

func TestRandomClassifier_AlwaysSafe(t *testing.T) {
	c := &RandomClassifier{SafeRatio: 1}

	for i := 0; i < 20; i++ {
		verdict, err := c.Classify(context.Background(), db.NewUUID())
		if err != nil {
			t.Fatalf("Classify() returned unexpected error: %v", err)
		}
		if verdict.IsSafe == nil || !*verdict.IsSafe {
			t.Fatalf("verdict = %+v; want safe", verdict)
		}
		if len(verdict.Flags) != 0 {
			t.Fatalf("safe verdict carries flags: %v", verdict.Flags)
		}
	}
}

func TestRandomClassifier_AlwaysFlagged(t *testing.T) {
	c := &RandomClassifier{SafeRatio: 0}

	verdict, err := c.Classify(context.Background(), db.NewUUID())
	if err != nil {
		t.Fatalf("Classify() returned unexpected error: %v", err)
	}
	if verdict.IsSafe == nil || *verdict.IsSafe {
		t.Fatalf("verdict = %+v; want flagged", verdict)
	}
	want := []string{"simulated_nudity", "simulated_violence"}
	if len(verdict.Flags) != len(want) || verdict.Flags[0] != want[0] || verdict.Flags[1] != want[1] {
		t.Errorf("flags = %v; want %v", verdict.Flags, want)
	}
}

func TestStaticProber_FixedDuration(t *testing.T) {
	p := NewStaticProber()

	d, err := p.Duration(context.Background(), "videos/1-1.mp4")
	if err != nil {
		t.Fatalf("Duration() returned unexpected error: %v", err)
	}
	if d != 120.5 {
		t.Errorf("duration = %v; want 120.5", d)
	}
}
