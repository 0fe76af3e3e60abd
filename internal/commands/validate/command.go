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

// Package validate implements 'baton validate': staged manifest
// validation (YAML syntax, JSON Schema, semantics).
package validate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tombee/baton/internal/commands/shared"
	"github.com/tombee/baton/internal/output"
	pkgerrors "github.com/tombee/baton/pkg/errors"
	"github.com/tombee/baton/pkg/pipeline/condexpr"
	"github.com/tombee/baton/pkg/pipeline/manifest"
	"github.com/tombee/baton/schemas"
)

// NewCommand creates the validate command
func NewCommand() *cobra.Command {
	var (
		schemaPath   string
		exportSchema bool
	)

	cmd := &cobra.Command{
		Use:   "validate <manifest...>",
		Short: "Validate manifest YAML syntax, schema, and semantics",
		Long: `Validate checks manifest files in three stages: YAML syntax, the
pipeline JSON Schema, and semantic rules (parameter types, step graph,
condition expressions). Arguments may be paths or glob patterns
(** is supported).

See also: baton render, baton inspect`,
		Example: `  # Validate one manifest
  baton validate pipeline.yaml

  # Validate a tree of manifests
  baton validate 'pipelines/**/*.yaml'

  # Machine-readable results
  baton validate pipeline.yaml --json

  # Export the manifest schema for editor integration
  baton validate --export-schema`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if exportSchema {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), schemas.GetPipelineSchemaString())
				return err
			}
			if len(args) == 0 {
				return shared.NewBadUsageError("no manifest files given", nil)
			}
			return runValidate(cmd, args, schemaPath)
		},
	}

	cmd.Flags().StringVar(&schemaPath, "schema", "", "Path to custom schema (default: embedded schema)")
	cmd.Flags().BoolVar(&exportSchema, "export-schema", false, "Print the embedded manifest schema and exit")

	return cmd
}

// fileResult collects the validation outcome for a single manifest.
type fileResult struct {
	Path     string             `json:"path"`
	Valid    bool               `json:"valid"`
	Pipeline string             `json:"pipeline,omitempty"`
	Steps    int                `json:"steps,omitempty"`
	Errors   []output.JSONError `json:"errors,omitempty"`
}

func runValidate(cmd *cobra.Command, patterns []string, schemaPath string) error {
	paths, err := expandPatterns(patterns)
	if err != nil {
		return err
	}

	schema, err := loadSchema(schemaPath)
	if err != nil {
		return err
	}

	results := make([]fileResult, 0, len(paths))
	failed := false
	for _, path := range paths {
		res := validateFile(path, schema)
		if !res.Valid {
			failed = true
		}
		results = append(results, res)
	}

	if shared.GetJSON() {
		type validateResponse struct {
			output.JSONResponse
			Files []fileResult `json:"files"`
		}
		if err := output.EmitJSON(validateResponse{
			JSONResponse: output.JSONResponse{Version: "1.0", Command: "validate", Success: !failed},
			Files:        results,
		}); err != nil {
			return err
		}
	} else {
		for _, res := range results {
			if res.Valid {
				if !shared.GetQuiet() {
					fmt.Fprintln(cmd.OutOrStdout(),
						shared.RenderOK(fmt.Sprintf("%s (%s, %d steps)", res.Path, res.Pipeline, res.Steps)))
				}
				continue
			}
			for _, ve := range res.Errors {
				if ve.Location != nil && ve.Location.Line > 0 {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s:%d: error: %s\n", res.Path, ve.Location.Line, ve.Message)
				} else {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: error: %s\n", res.Path, ve.Message)
				}
				if ve.Suggestion != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "  Suggestion: %s\n", ve.Suggestion)
				}
			}
		}
	}

	if failed {
		return &shared.ExitError{Code: shared.ExitInvalidManifest, Message: "validation failed"}
	}
	return nil
}

// expandPatterns resolves arguments that may be plain paths or glob
// patterns into a sorted, de-duplicated path list.
func expandPatterns(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string

	for _, pattern := range patterns {
		// Plain paths are used verbatim so a missing file is reported
		// against the name the user typed.
		if !hasGlobMeta(pattern) {
			if !seen[pattern] {
				seen[pattern] = true
				paths = append(paths, pattern)
			}
			continue
		}

		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, shared.NewBadUsageError(fmt.Sprintf("bad glob pattern %q", pattern), err)
		}
		if len(matches) == 0 {
			return nil, shared.NewBadUsageError(fmt.Sprintf("pattern %q matched no files", pattern), nil)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}

	sort.Strings(paths)
	return paths, nil
}

func hasGlobMeta(pattern string) bool {
	for _, r := range pattern {
		switch r {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}

// loadSchema returns the manifest schema, from a custom path or embedded.
func loadSchema(schemaPath string) (map[string]interface{}, error) {
	data := schemas.GetPipelineSchema()
	if schemaPath != "" {
		custom, err := os.ReadFile(schemaPath)
		if err != nil {
			return nil, shared.NewBadUsageError("failed to read schema file", err)
		}
		data = custom
	}

	var schema map[string]interface{}
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, shared.NewBadUsageError("schema is not valid JSON", err)
	}
	return schema, nil
}

// validateFile runs the three validation stages against one manifest.
func validateFile(path string, schema map[string]interface{}) fileResult {
	res := fileResult{Path: filepath.ToSlash(path)}

	data, err := os.ReadFile(path)
	if err != nil {
		res.Errors = append(res.Errors, output.JSONError{
			Code:       shared.ErrorCodeFileNotFound,
			Message:    fmt.Sprintf("failed to read manifest: %v", err),
			Suggestion: "Check that the file path is correct and the file exists",
		})
		return res
	}

	// Stage 1: YAML syntax
	var yamlData interface{}
	if err := yaml.Unmarshal(data, &yamlData); err != nil {
		line, col := extractYAMLErrorLocation(err)
		jsonErr := output.JSONError{
			Code:       shared.ErrorCodeInvalidYAML,
			Message:    fmt.Sprintf("YAML syntax error: %v", err),
			Suggestion: "Check YAML syntax and indentation",
		}
		if line > 0 {
			jsonErr.Location = &output.JSONLocation{Line: line, Column: col}
		}
		res.Errors = append(res.Errors, jsonErr)
		return res
	}

	// Stage 2: JSON Schema
	if err := schemas.NewValidator().Validate(schema, normalizeYAML(yamlData)); err != nil {
		jsonErr := output.JSONError{
			Code:       shared.ErrorCodeSchemaViolation,
			Message:    err.Error(),
			Suggestion: "Review the manifest schema constraints",
		}
		var valErr *schemas.ValidationError
		if pkgerrors.As(err, &valErr) {
			jsonErr.Message = valErr.Error()
		}
		res.Errors = append(res.Errors, jsonErr)
		return res
	}

	// Stage 3: semantics (manifest build, condition expression compilation,
	// pipeline validation)
	p, err := manifest.Parse(data)
	if err != nil {
		res.Errors = append(res.Errors, semanticError(err))
		return res
	}

	res.Valid = true
	res.Pipeline = p.Name
	res.Steps = len(p.Steps)
	return res
}

// semanticError maps build errors onto JSON error codes, surfacing
// suggestions where the underlying error carries one.
func semanticError(err error) output.JSONError {
	var valErr *pkgerrors.ValidationError
	if pkgerrors.As(err, &valErr) {
		code := shared.ErrorCodeSchemaViolation
		switch {
		case strings.Contains(valErr.Message, "requires"):
			code = shared.ErrorCodeMissingField
		case strings.Contains(valErr.Message, "unknown step"):
			code = shared.ErrorCodeInvalidReference
		}
		return output.JSONError{
			Code:       code,
			Message:    valErr.Error(),
			Suggestion: valErr.Suggestion,
		}
	}

	var compErr *condexpr.CompileError
	if pkgerrors.As(err, &compErr) {
		return output.JSONError{
			Code:       shared.ErrorCodeInvalidCondition,
			Message:    err.Error(),
			Suggestion: compErr.Suggestion(),
		}
	}

	return output.JSONError{
		Code:       shared.ErrorCodeSchemaViolation,
		Message:    err.Error(),
		Suggestion: "Review the manifest for semantic errors",
	}
}

// extractYAMLErrorLocation attempts to extract line and column from YAML parse error
func extractYAMLErrorLocation(err error) (line, col int) {
	// Decode errors arrive as *yaml.TypeError with "line X: message" entries
	if typeErr, ok := err.(*yaml.TypeError); ok {
		if len(typeErr.Errors) > 0 {
			var l int
			if _, parseErr := fmt.Sscanf(typeErr.Errors[0], "line %d:", &l); parseErr == nil {
				return l, 0
			}
		}
		return 0, 0
	}

	// Plain syntax errors are ordinary errors formatted "yaml: line X: message"
	var l int
	if _, parseErr := fmt.Sscanf(err.Error(), "yaml: line %d:", &l); parseErr == nil {
		return l, 0
	}
	return 0, 0
}

// normalizeYAML converts yaml.v3's map[string]interface{} values into the
// shapes the schema validator expects. yaml.v3 already decodes mappings
// with string keys, but nested keys may decode as interface{} keys when
// the document mixes key types.
func normalizeYAML(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = normalizeYAML(item)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[fmt.Sprintf("%v", k)] = normalizeYAML(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = normalizeYAML(item)
		}
		return out
	default:
		return v
	}
}
