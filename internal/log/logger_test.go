package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != "info" {
		t.Errorf("expected default level 'info', got %q", cfg.Level)
	}

	if cfg.Format != FormatJSON {
		t.Errorf("expected default format 'json', got %q", cfg.Format)
	}

	if cfg.Output != os.Stderr {
		t.Errorf("expected default output to be os.Stderr")
	}

	if cfg.AddSource {
		t.Errorf("expected default AddSource to be false")
	}
}

func TestFromEnv(t *testing.T) {
	tests := []struct {
		name      string
		envVars   map[string]string
		wantLevel string
		wantFmt   Format
		wantSrc   bool
	}{
		{
			name:      "defaults when no env vars",
			envVars:   map[string]string{},
			wantLevel: "info",
			wantFmt:   FormatJSON,
		},
		{
			name:      "BATON_DEBUG enables debug and source",
			envVars:   map[string]string{"BATON_DEBUG": "1"},
			wantLevel: "debug",
			wantFmt:   FormatJSON,
			wantSrc:   true,
		},
		{
			name:      "BATON_LOG_LEVEL takes precedence over LOG_LEVEL",
			envVars:   map[string]string{"BATON_LOG_LEVEL": "warn", "LOG_LEVEL": "error"},
			wantLevel: "warn",
			wantFmt:   FormatJSON,
		},
		{
			name:      "LOG_LEVEL used when BATON_LOG_LEVEL unset",
			envVars:   map[string]string{"LOG_LEVEL": "ERROR"},
			wantLevel: "error",
			wantFmt:   FormatJSON,
		},
		{
			name:      "LOG_FORMAT text",
			envVars:   map[string]string{"LOG_FORMAT": "text"},
			wantLevel: "info",
			wantFmt:   FormatText,
		},
		{
			name:      "LOG_SOURCE enables source",
			envVars:   map[string]string{"LOG_SOURCE": "1"},
			wantLevel: "info",
			wantFmt:   FormatJSON,
			wantSrc:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"BATON_DEBUG", "BATON_LOG_LEVEL", "LOG_LEVEL", "LOG_FORMAT", "LOG_SOURCE"} {
				t.Setenv(key, "")
				os.Unsetenv(key)
			}
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := FromEnv()

			if cfg.Level != tt.wantLevel {
				t.Errorf("Level = %q, want %q", cfg.Level, tt.wantLevel)
			}
			if cfg.Format != tt.wantFmt {
				t.Errorf("Format = %q, want %q", cfg.Format, tt.wantFmt)
			}
			if cfg.AddSource != tt.wantSrc {
				t.Errorf("AddSource = %v, want %v", cfg.AddSource, tt.wantSrc)
			}
		})
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{
		Level:  "info",
		Format: FormatJSON,
		Output: &buf,
	})

	logger.Info("rendering definition", PipelineKey, "quality-gate")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if entry["msg"] != "rendering definition" {
		t.Errorf("msg = %v, want 'rendering definition'", entry["msg"])
	}
	if entry[PipelineKey] != "quality-gate" {
		t.Errorf("%s = %v, want 'quality-gate'", PipelineKey, entry[PipelineKey])
	}
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{
		Level:  "info",
		Format: FormatText,
		Output: &buf,
	})

	logger.Info("manifest loaded", ManifestKey, "pipeline.yaml")

	out := buf.String()
	if !strings.Contains(out, "manifest loaded") {
		t.Errorf("text output missing message: %s", out)
	}
	if !strings.Contains(out, "pipeline.yaml") {
		t.Errorf("text output missing manifest path: %s", out)
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{
		Level:  "warn",
		Format: FormatJSON,
		Output: &buf,
	})

	logger.Debug("should not appear")
	logger.Info("should not appear either")
	logger.Warn("should appear")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 log line, got %d: %s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "should appear") {
		t.Errorf("unexpected log line: %s", lines[0])
	}
}

func TestNew_NilConfigUsesDefaults(t *testing.T) {
	logger := New(nil)
	if logger == nil {
		t.Fatal("New(nil) returned nil logger")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"trace", LevelTrace},
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestWithStep(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "info", Format: FormatJSON, Output: &buf})

	stepLogger := WithStep(logger, "quality-gate", "train")
	stepLogger.Info("step rendered")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if entry[PipelineKey] != "quality-gate" {
		t.Errorf("%s = %v, want 'quality-gate'", PipelineKey, entry[PipelineKey])
	}
	if entry[StepKey] != "train" {
		t.Errorf("%s = %v, want 'train'", StepKey, entry[StepKey])
	}
}

func TestTrace(t *testing.T) {
	t.Run("emitted at trace level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(&Config{Level: "trace", Format: FormatJSON, Output: &buf})

		Trace(logger, "parse tree", String("expr", "a >= b"))

		if !strings.Contains(buf.String(), "parse tree") {
			t.Errorf("trace message not emitted: %s", buf.String())
		}
	})

	t.Run("suppressed at debug level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(&Config{Level: "debug", Format: FormatJSON, Output: &buf})

		Trace(logger, "parse tree")

		if buf.Len() != 0 {
			t.Errorf("trace message should be suppressed: %s", buf.String())
		}
	})
}

func TestErrorAttr(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "info", Format: FormatJSON, Output: &buf})

	logger.LogAttrs(nil, slog.LevelInfo, "render failed", Error(errors.New("bad manifest")))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry["error"] != "bad manifest" {
		t.Errorf("error = %v, want 'bad manifest'", entry["error"])
	}
}
