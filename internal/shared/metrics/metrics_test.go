package metrics

import (
	"strings"
	"testing"
)

func TestRenderIncludesCounters(t *testing.T) {
	IncPipelineStarted()
	IncQuestionsReady()
	IncReportGenerated()
	IncPipelineFailed()
	IncFallbackQuestions()

	out := Render()
	for _, name := range []string{
		"pipeline_started_total",
		"questions_ready_total",
		"reports_generated_total",
		"pipeline_failed_total",
		"fallback_questions_total",
	} {
		if !strings.Contains(out, name) {
			t.Fatalf("expected %s in output:\n%s", name, out)
		}
	}
}

func TestRenderIncludesStageHistograms(t *testing.T) {
	ObserveStageDurationMs("extract", 120)
	ObserveStageDurationMs("dialogue", 900)

	out := Render()
	if !strings.Contains(out, `pipeline_stage_duration_ms_count{stage="extract"}`) {
		t.Fatalf("expected extract histogram:\n%s", out)
	}
	if !strings.Contains(out, `pipeline_stage_duration_ms_count{stage="dialogue"}`) {
		t.Fatalf("expected dialogue histogram:\n%s", out)
	}
	if !strings.Contains(out, `le="+Inf"`) {
		t.Fatalf("expected +Inf bucket:\n%s", out)
	}
}

func TestObserveStageClampsNegative(t *testing.T) {
	ObserveStageDurationMs("clamp", -5)
	out := Render()
	if !strings.Contains(out, `pipeline_stage_duration_ms_sum{stage="clamp"} 0`) {
		t.Fatalf("expected clamped sum:\n%s", out)
	}
}
