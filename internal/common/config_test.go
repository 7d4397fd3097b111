package common

import (
	"errors"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"RASTER_DPI", "BLANK_TEXT_THRESHOLD", "HEADER_CROP_FRACTION", "WATCHER_COOLDOWN", "CLASSIFIER"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig()

	if cfg.Raster.DPI != 200 {
		t.Fatalf("dpi = %d, want 200", cfg.Raster.DPI)
	}
	if cfg.Evaluator.BlankTextThreshold != 100 {
		t.Fatalf("blank threshold = %d, want 100", cfg.Evaluator.BlankTextThreshold)
	}
	if cfg.Evaluator.HeaderCropFraction != 0.3 {
		t.Fatalf("crop fraction = %v, want 0.3", cfg.Evaluator.HeaderCropFraction)
	}
	if cfg.Watch.Cooldown != 5*time.Second {
		t.Fatalf("cooldown = %v, want 5s", cfg.Watch.Cooldown)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("WATCHER_COOLDOWN", "7")
	t.Setenv("RASTER_DPI", "300")
	t.Setenv("CLASSIFIER", "header")
	t.Setenv("WATCH_INITIAL_SCAN", "false")
	t.Setenv("RASTER_MAX_PAGES", "40")
	cfg := LoadConfig()

	if cfg.Raster.MaxPages != 40 {
		t.Fatalf("max pages = %d", cfg.Raster.MaxPages)
	}
	if cfg.Watch.InitialScan {
		t.Fatal("WATCH_INITIAL_SCAN=false should disable the initial scan")
	}
	if cfg.Watch.Cooldown != 7*time.Second {
		t.Fatalf("bare integer cooldown should be seconds, got %v", cfg.Watch.Cooldown)
	}
	if cfg.Raster.DPI != 300 {
		t.Fatalf("dpi = %d", cfg.Raster.DPI)
	}
	if cfg.Classifier.Backend != "header" {
		t.Fatalf("backend = %q", cfg.Classifier.Backend)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := LoadConfig()
	cfg.Classifier.Backend = "keras"
	cfg.Classifier.Threshold = 1.5
	cfg.Watch.Workers = 0
	cfg.Raster.MaxPages = -1

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Code != CodeConfig {
		t.Fatalf("expected CONFIG_ERROR AppError, got %#v", err)
	}
}

func TestValidateOpenAIRequiresKey(t *testing.T) {
	cfg := LoadConfig()
	cfg.Classifier.Backend = "openai"
	cfg.LLM.APIKey = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected missing OPENAI_API_KEY to fail validation")
	}
	cfg.LLM.APIKey = "sk-test"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAppErrorsMatchSentinels(t *testing.T) {
	cases := []struct {
		err  error
		want error
	}{
		{NotFound("/x.pdf"), ErrNotFound},
		{EmptyOrBroken("/x.pdf", nil), ErrEmptyOrBroken},
		{EmptyOrBroken("/x.pdf", errors.New("bad xref")), ErrEmptyOrBroken},
		{InvalidInvocationOrder("materialize"), ErrInvalidInvocationOrder},
		{InvalidPath("/dev/null"), ErrInvalidPath},
	}
	for _, c := range cases {
		if !errors.Is(c.err, c.want) {
			t.Errorf("%v does not match %v", c.err, c.want)
		}
	}
}
