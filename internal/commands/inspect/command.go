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

// Package inspect implements 'baton inspect': jq queries over rendered
// definition documents.
package inspect

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tombee/baton/internal/commands/shared"
	"github.com/tombee/baton/internal/jq"
	"github.com/tombee/baton/internal/output"
	"github.com/tombee/baton/pkg/pipeline/manifest"
)

// NewCommand creates the inspect command
func NewCommand() *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "inspect <definition.json|manifest.yaml>",
		Short: "Query a definition document with jq",
		Long: `Inspect runs a jq query against a definition document. The input may
be rendered definition JSON, or a YAML manifest (rendered on the fly
before the query runs).`,
		Example: `  # List step names
  baton inspect pipeline.json --query '.Steps[].Name'

  # Pull out condition steps
  baton inspect pipeline.json --query '.Steps[] | select(.Type == "Condition")'

  # Query a manifest without rendering to a file first
  baton inspect pipeline.yaml --query '.Parameters'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args[0], query)
		},
	}

	cmd.Flags().StringVarP(&query, "query", "Q", ".", "jq query to run against the definition")

	return cmd
}

func runInspect(cmd *cobra.Command, path, query string) error {
	executor := jq.NewExecutor(0, 0)

	if err := executor.Validate(query); err != nil {
		return queryFailure(shared.ErrorCodeInvalidQuery, fmt.Sprintf("bad query %q", query), err)
	}

	doc, err := loadDefinition(path)
	if err != nil {
		return err
	}

	result, err := executor.Execute(cmd.Context(), query, doc)
	if err != nil {
		return queryFailure(shared.ErrorCodeQueryFailed, "query failed", err)
	}

	if shared.GetJSON() {
		type inspectResponse struct {
			output.JSONResponse
			Query  string `json:"query"`
			Result any    `json:"result"`
		}
		return output.EmitJSON(inspectResponse{
			JSONResponse: output.JSONResponse{Version: "1.0", Command: "inspect", Success: true},
			Query:        query,
			Result:       result,
		})
	}

	return printResult(cmd, result)
}

// queryJSONError builds the error envelope entry for a query failure:
// E201 for a query that does not compile, E202 for one that fails
// against the document.
func queryJSONError(code, msg string, cause error) output.JSONError {
	suggestion := "Check the jq query syntax"
	if code == shared.ErrorCodeQueryFailed {
		suggestion = "Check that the query matches the definition document shape (.Steps, .Parameters, .Metadata)"
	}
	return output.JSONError{
		Code:       code,
		Message:    fmt.Sprintf("%s: %v", msg, cause),
		Suggestion: suggestion,
	}
}

// queryFailure reports a bad or failing query on the selected output
// surface and maps it to the bad-usage exit code.
func queryFailure(code, msg string, cause error) error {
	if shared.GetJSON() {
		_ = output.EmitJSONError("inspect", []output.JSONError{queryJSONError(code, msg, cause)})
		return &shared.ExitError{Code: shared.ExitBadUsage}
	}
	return shared.NewBadUsageError(msg, cause)
}

// loadDefinition reads definition JSON, rendering YAML manifests first.
func loadDefinition(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, shared.NewRenderError(fmt.Sprintf("reading %s", path), err)
	}

	if isYAMLManifest(path) {
		p, err := manifest.Parse(data)
		if err != nil {
			return nil, shared.NewInvalidManifestError(fmt.Sprintf("manifest %s is invalid", path), err)
		}
		// Round-trip through JSON so the query sees the exact wire shapes
		raw, err := json.Marshal(p.ToRequest())
		if err != nil {
			return nil, shared.NewRenderError("marshaling definition", err)
		}
		data = raw
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, shared.NewRenderError(fmt.Sprintf("%s is not valid definition JSON", path), err)
	}
	return doc, nil
}

func isYAMLManifest(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml")
}

// printResult writes query output the way jq would: strings bare,
// everything else as indented JSON, one result per line for arrays
// produced by multi-output queries.
func printResult(cmd *cobra.Command, result any) error {
	if result == nil {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "null")
		return err
	}
	if s, ok := result.(string); ok {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), s)
		return err
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return shared.NewRenderError("marshaling query result", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
