package services

import (
	"testing"
)

func TestSummarize(t *testing.T) {
	res := summarize(3, nil, "Paused %d session(s)")
	if !res.Success {
		t.Error("expected success with no errors")
	}
	if res.Count != 3 {
		t.Errorf("Count = %d, want 3", res.Count)
	}
	if res.Message != "Paused 3 session(s)" {
		t.Errorf("Message = %q", res.Message)
	}

	res = summarize(1, []string{"session 7: no open pause"}, "Resumed %d session(s)")
	if res.Success {
		t.Error("expected partial result to not be marked success")
	}
	if res.Count != 1 {
		t.Errorf("Count = %d, want 1", res.Count)
	}
	if len(res.Errors) != 1 {
		t.Errorf("Errors = %v, want one entry", res.Errors)
	}
}
