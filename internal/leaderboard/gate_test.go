package leaderboard

import "testing"

func TestGateIsEligible(t *testing.T) {
	g := NewGate(3)
	tests := []struct {
		name      string
		candidate Score
		existing  []Score
		want      bool
	}{
		{"empty board", 1, nil, true},
		{"board not full", 1, []Score{50, 40}, true},
		{"beats lowest", 35, []Score{50, 40, 30}, true},
		{"ties lowest", 30, []Score{50, 40, 30}, false},
		{"below lowest", 10, []Score{50, 40, 30}, false},
		{"unsorted input", 35, []Score{30, 50, 40}, true},
		{"ranks against top only", 25, []Score{50, 40, 30, 20, 10}, false},
		{"zero score on full board", 0, []Score{3, 2, 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.IsEligible(tt.candidate, tt.existing); got != tt.want {
				t.Fatalf("IsEligible(%d, %v) = %v, want %v", tt.candidate, tt.existing, got, tt.want)
			}
		})
	}
}

func TestGateDoesNotReorderInput(t *testing.T) {
	existing := []Score{30, 50, 40}
	NewGate(3).IsEligible(35, existing)
	if existing[0] != 30 || existing[1] != 50 || existing[2] != 40 {
		t.Fatalf("input mutated: %v", existing)
	}
}

func TestScoreFromDuration(t *testing.T) {
	if got := ScoreFromDuration(12_345_600_000); got != 12346 {
		t.Fatalf("ScoreFromDuration = %d, want 12346", got)
	}
	if got := Score(12300).String(); got != "12.30s" {
		t.Fatalf("String = %q", got)
	}
}

func TestScoreUnmarshalJSON(t *testing.T) {
	tests := []struct {
		in   string
		want Score
	}{
		{"4200", 4200},
		{"12.3", 12300},
		{"0.0004", 0},
		{"1e3", 1000000},
	}
	for _, tt := range tests {
		var s Score
		if err := s.UnmarshalJSON([]byte(tt.in)); err != nil {
			t.Fatalf("UnmarshalJSON(%s): %v", tt.in, err)
		}
		if s != tt.want {
			t.Fatalf("UnmarshalJSON(%s) = %d, want %d", tt.in, s, tt.want)
		}
	}

	var s Score
	if err := s.UnmarshalJSON([]byte(`"fast"`)); err == nil {
		t.Fatal("a non-numeric score must fail")
	}
}
