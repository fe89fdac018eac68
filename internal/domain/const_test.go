package domain

import "testing"

func TestValidPipelineTransition(t *testing.T) {
	cases := []struct {
		from string
		to   string
		want bool
	}{
		{PipelineStatusDraft, PipelineStatusRunning, true},
		{PipelineStatusRunning, PipelineStatusCompleted, true},
		{PipelineStatusRunning, PipelineStatusFailed, true},
		{PipelineStatusFailed, PipelineStatusRunning, true},
		{PipelineStatusDraft, PipelineStatusCompleted, false},
		{PipelineStatusCompleted, PipelineStatusRunning, false},
		{PipelineStatusCompleted, PipelineStatusDraft, false},
		{"unknown", PipelineStatusRunning, false},
	}

	for _, c := range cases {
		if got := ValidPipelineTransition(c.from, c.to); got != c.want {
			t.Fatalf("ValidPipelineTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}
