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

package inspect

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tombee/baton/internal/commands/shared"
)

const definitionJSON = `{
  "Version": "2024-01",
  "Metadata": {"PipelineName": "quality-gate"},
  "Parameters": [{"Name": "min_auc", "Type": "Float", "DefaultValue": 0.82}],
  "Steps": [
    {"Name": "train", "Type": "Task", "Arguments": {"image": "trainer:v3"}},
    {"Name": "gate", "Type": "Condition", "Arguments": {"Conditions": [], "IfSteps": [], "ElseSteps": []}}
  ]
}`

func writeDefinition(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func runInspectCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestInspectStepNames(t *testing.T) {
	path := writeDefinition(t, "pipeline.json", definitionJSON)

	out, err := runInspectCmd(t, path, "--query", ".Steps[].Name")
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}

	// Two results collapse into an array
	if !strings.Contains(out, "train") || !strings.Contains(out, "gate") {
		t.Errorf("output %q missing step names", out)
	}
}

func TestInspectSingleString(t *testing.T) {
	path := writeDefinition(t, "pipeline.json", definitionJSON)

	out, err := runInspectCmd(t, path, "--query", ".Metadata.PipelineName")
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	if strings.TrimSpace(out) != "quality-gate" {
		t.Errorf("output = %q, want quality-gate", strings.TrimSpace(out))
	}
}

func TestInspectSelectByType(t *testing.T) {
	path := writeDefinition(t, "pipeline.json", definitionJSON)

	out, err := runInspectCmd(t, path, "--query", `.Steps[] | select(.Type == "Condition") | .Name`)
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	if strings.TrimSpace(out) != "gate" {
		t.Errorf("output = %q, want gate", strings.TrimSpace(out))
	}
}

func TestInspectRendersManifestInput(t *testing.T) {
	manifest := `
name: quality-gate
steps:
  - name: train
    type: task
`
	path := writeDefinition(t, "pipeline.yaml", manifest)

	out, err := runInspectCmd(t, path, "--query", ".Metadata.PipelineName")
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	if strings.TrimSpace(out) != "quality-gate" {
		t.Errorf("output = %q, want quality-gate", strings.TrimSpace(out))
	}
}

func TestInspectBadQuery(t *testing.T) {
	path := writeDefinition(t, "pipeline.json", definitionJSON)

	_, err := runInspectCmd(t, path, "--query", ".Steps[")
	if err == nil {
		t.Fatal("expected error for bad query")
	}

	var exitErr *shared.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %T", err)
	}
	if exitErr.Code != shared.ExitBadUsage {
		t.Errorf("exit code = %d, want %d", exitErr.Code, shared.ExitBadUsage)
	}
}

func TestInspectInvalidJSON(t *testing.T) {
	path := writeDefinition(t, "pipeline.json", "{not json")

	_, err := runInspectCmd(t, path, "--query", ".")
	if err == nil {
		t.Fatal("expected error for invalid definition JSON")
	}
}

func TestQueryErrorCodes(t *testing.T) {
	cause := errors.New("unexpected token")

	bad := queryJSONError(shared.ErrorCodeInvalidQuery, "bad query", cause)
	if bad.Code != shared.ErrorCodeInvalidQuery {
		t.Errorf("code = %q, want %q", bad.Code, shared.ErrorCodeInvalidQuery)
	}
	if !strings.Contains(bad.Message, "unexpected token") {
		t.Errorf("message %q missing cause", bad.Message)
	}
	if bad.Suggestion == "" {
		t.Error("expected a suggestion for a bad query")
	}

	failed := queryJSONError(shared.ErrorCodeQueryFailed, "query failed", cause)
	if failed.Code != shared.ErrorCodeQueryFailed {
		t.Errorf("code = %q, want %q", failed.Code, shared.ErrorCodeQueryFailed)
	}
	if failed.Suggestion == bad.Suggestion {
		t.Error("execution failures should suggest the document shape, not query syntax")
	}
}

func TestQueryFailureExitCode(t *testing.T) {
	err := queryFailure(shared.ErrorCodeInvalidQuery, "bad query", errors.New("boom"))

	var exitErr *shared.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %T", err)
	}
	if exitErr.Code != shared.ExitBadUsage {
		t.Errorf("exit code = %d, want %d", exitErr.Code, shared.ExitBadUsage)
	}
}
