package log

import (
	"context"
	"strings"
	"testing"
)

func TestTestLoggerCapturesFields(t *testing.T) {
	logger, buffer := NewTestLogger(LevelDebug)

	contextual := logger.With(ModelNameKey, "GaussianProcessRegressor")
	contextual.Info("fit complete",
		OperationKey, "fit",
		SamplesKey, 544,
	)

	out := buffer.String()
	if !strings.Contains(out, "INFO fit complete") {
		t.Errorf("missing message: %q", out)
	}
	if !strings.Contains(out, "model.name=GaussianProcessRegressor") {
		t.Errorf("missing contextual field: %q", out)
	}
	if !strings.Contains(out, "data.samples=544") {
		t.Errorf("missing field: %q", out)
	}
}

func TestTestLoggerLevelFiltering(t *testing.T) {
	logger, buffer := NewTestLogger(LevelWarn)

	logger.Debug("dropped")
	logger.Info("dropped too")
	logger.Warn("kept")

	out := buffer.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("messages below level should be filtered: %q", out)
	}
	if !strings.Contains(out, "WARN kept") {
		t.Errorf("warn message missing: %q", out)
	}
}

func TestLevelString(t *testing.T) {
	cases := map[Level]string{
		LevelDebug: "DEBUG",
		LevelInfo:  "INFO",
		LevelWarn:  "WARN",
		LevelError: "ERROR",
	}
	for level, want := range cases {
		if got := level.String(); got != want {
			t.Errorf("Level(%d).String() = %q, want %q", level, got, want)
		}
	}
}

func TestZerologProviderEnabled(t *testing.T) {
	p := newZerologProvider()
	p.SetLevel(LevelWarn)

	logger := p.GetLogger()
	if logger.Enabled(context.Background(), LevelDebug) {
		t.Error("debug should be disabled at warn level")
	}
	if !logger.Enabled(context.Background(), LevelError) {
		t.Error("error should be enabled at warn level")
	}
}
