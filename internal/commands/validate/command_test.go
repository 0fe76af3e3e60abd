// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package validate

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/tombee/baton/internal/commands/shared"
	pkgerrors "github.com/tombee/baton/pkg/errors"
)

const validManifest = `
name: quality-gate
parameters:
  - name: min_auc
    type: Float
    default: 0.82
steps:
  - name: train
    type: task
  - name: gate
    type: condition
    when: 'train.Metrics.AUC >= min_auc'
    depends_on: [train]
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func runCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestValidateAcceptsGoodManifest(t *testing.T) {
	path := writeFile(t, t.TempDir(), "pipeline.yaml", validManifest)

	out, _, err := runCommand(t, path)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if !strings.Contains(out, "quality-gate") {
		t.Errorf("output %q does not mention the pipeline name", out)
	}
}

func TestValidateStages(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		wantStderr  string
		wantSuggest bool
	}{
		{
			name:       "yaml syntax error",
			content:    "name: [unclosed",
			wantStderr: "YAML syntax error",
		},
		{
			name:       "schema violation",
			content:    "name: p\nsteps:\n  - name: s\n    type: webhook\n",
			wantStderr: "not in allowed values",
		},
		{
			name:        "bad condition expression",
			content:     "name: p\nsteps:\n  - name: gate\n    type: condition\n    when: 'x == 1'\n",
			wantStderr:  "unknown name",
			wantSuggest: false,
		},
		{
			name:        "unknown dependency",
			content:     "name: p\nsteps:\n  - name: s\n    type: task\n    depends_on: [ghost]\n",
			wantStderr:  "unknown step",
			wantSuggest: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "pipeline.yaml", tt.content)

			_, errOut, err := runCommand(t, path)
			if err == nil {
				t.Fatal("expected validation failure")
			}

			var exitErr *shared.ExitError
			if !errors.As(err, &exitErr) {
				t.Fatalf("expected ExitError, got %T", err)
			}
			if exitErr.Code != shared.ExitInvalidManifest {
				t.Errorf("exit code = %d, want %d", exitErr.Code, shared.ExitInvalidManifest)
			}
			if !strings.Contains(errOut, tt.wantStderr) {
				t.Errorf("stderr %q missing %q", errOut, tt.wantStderr)
			}
			if tt.wantSuggest && !strings.Contains(errOut, "Suggestion:") {
				t.Errorf("stderr %q missing suggestion", errOut)
			}
		})
	}
}

func TestValidateGlobPattern(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", validManifest)
	sub := filepath.Join(dir, "nested")
	if err := os.MkdirAll(sub, 0700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeFile(t, sub, "b.yaml", validManifest)

	out, _, err := runCommand(t, filepath.Join(dir, "**", "*.yaml"), filepath.Join(dir, "*.yaml"))
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	// Both files validated once despite overlapping patterns
	if got := strings.Count(out, "quality-gate"); got != 2 {
		t.Errorf("validated %d files, want 2\n%s", got, out)
	}
}

func TestValidateGlobNoMatches(t *testing.T) {
	_, _, err := runCommand(t, filepath.Join(t.TempDir(), "*.yaml"))
	if err == nil {
		t.Fatal("expected error for pattern with no matches")
	}

	var exitErr *shared.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %T", err)
	}
	if exitErr.Code != shared.ExitBadUsage {
		t.Errorf("exit code = %d, want %d", exitErr.Code, shared.ExitBadUsage)
	}
}

func TestValidateNoArgs(t *testing.T) {
	_, _, err := runCommand(t)
	if err == nil {
		t.Fatal("expected error for missing arguments")
	}

	var exitErr *shared.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %T", err)
	}
	if exitErr.Code != shared.ExitBadUsage {
		t.Errorf("exit code = %d, want %d", exitErr.Code, shared.ExitBadUsage)
	}
}

func TestValidateExportSchema(t *testing.T) {
	out, _, err := runCommand(t, "--export-schema")
	if err != nil {
		t.Fatalf("export-schema failed: %v", err)
	}

	var schema map[string]interface{}
	if err := json.Unmarshal([]byte(out), &schema); err != nil {
		t.Fatalf("exported schema is not valid JSON: %v", err)
	}
	if schema["title"] == "" {
		t.Error("exported schema missing title")
	}
}

func TestSemanticErrorCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "missing field",
			err:  &pkgerrors.ValidationError{Field: "name", Message: "manifest requires a name"},
			want: shared.ErrorCodeMissingField,
		},
		{
			name: "unknown dependency",
			err:  &pkgerrors.ValidationError{Field: "steps[1].depends_on", Message: `step "gate" depends on unknown step "ghost"`},
			want: shared.ErrorCodeInvalidReference,
		},
		{
			name: "duplicate step name",
			err:  &pkgerrors.ValidationError{Field: "steps[1].name", Message: `duplicate step name "train"`},
			want: shared.ErrorCodeSchemaViolation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := semanticError(tt.err).Code; got != tt.want {
				t.Errorf("code = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestYAMLErrorLocation(t *testing.T) {
	var doc map[string]interface{}
	err := yaml.Unmarshal([]byte("name: p\nsteps:\n\t- tabs are not indentation\n"), &doc)
	if err == nil {
		t.Fatal("expected a yaml syntax error")
	}

	line, _ := extractYAMLErrorLocation(err)
	if line == 0 {
		t.Errorf("no line extracted from %v", err)
	}
}

func TestValidateMixedResults(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.yaml", validManifest)
	bad := writeFile(t, dir, "bad.yaml", "name: [broken")

	_, errOut, err := runCommand(t, good, bad)
	if err == nil {
		t.Fatal("expected failure when any file is invalid")
	}
	if !strings.Contains(errOut, "bad.yaml") {
		t.Errorf("stderr %q does not name the failing file", errOut)
	}
}
