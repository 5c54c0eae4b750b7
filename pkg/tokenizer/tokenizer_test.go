package tokenizer

import "testing"

func TestEstimate(t *testing.T) {
	if got := Estimate(""); got != 0 {
		t.Errorf("Estimate(\"\") = %d, want 0", got)
	}
	if got := Estimate("hi"); got < 1 {
		t.Errorf("Estimate(\"hi\") = %d, want >= 1", got)
	}
	long := Estimate("the quick brown fox jumps over the lazy dog")
	short := Estimate("the quick fox")
	if long <= short {
		t.Errorf("longer text should estimate more tokens: %d <= %d", long, short)
	}
}

func TestEstimateMessages(t *testing.T) {
	total := EstimateMessages("hello there", "general kenobi")
	if total != Estimate("hello there")+Estimate("general kenobi") {
		t.Errorf("EstimateMessages should sum per-message estimates, got %d", total)
	}
}
