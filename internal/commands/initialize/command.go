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

// Package initialize implements 'baton init': scaffolding a starter
// manifest, interactively when a terminal is attached.
package initialize

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/tombee/baton/internal/cli/format"
	"github.com/tombee/baton/internal/commands/shared"
	"github.com/tombee/baton/internal/output"
	"github.com/tombee/baton/internal/templates"
	"github.com/tombee/baton/pkg/pipeline/manifest"
)

// NewCommand creates the init command
func NewCommand() *cobra.Command {
	var (
		name          string
		paramName     string
		paramType     string
		template      string
		listTemplates bool
	)

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Scaffold a new pipeline manifest",
		Long: `Init writes a commented starter manifest. With a terminal attached it
asks for the pipeline name, a description, and an optional first
parameter; pass --name to skip the prompts.

The manifest is written to the given path (default: pipeline.yaml).`,
		Example: `  # Interactive scaffold
  baton init

  # Non-interactive, for scripts
  baton init ci/pipeline.yaml --name nightly-build

  # Start from an embedded template
  baton init --name release --template branching`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listTemplates {
				return runListTemplates(cmd)
			}
			path := "pipeline.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			return runInit(cmd, path, name, template, paramName, paramType)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Pipeline name (skips the interactive prompts)")
	cmd.Flags().StringVarP(&template, "template", "t", "", "Embedded template to start from (see --list-templates)")
	cmd.Flags().BoolVar(&listTemplates, "list-templates", false, "List embedded templates and exit")
	cmd.Flags().StringVar(&paramName, "parameter", "", "Name for a starter parameter")
	cmd.Flags().StringVar(&paramType, "parameter-type", "String", "Type for the starter parameter (String, Integer, Float, Boolean)")

	return cmd
}

// answers collects the wizard's results.
type answers struct {
	name        string
	description string
	paramName   string
	paramType   string
}

func runInit(cmd *cobra.Command, path, name, template, paramName, paramType string) error {
	if _, err := os.Stat(path); err == nil {
		return shared.NewBadUsageError(
			fmt.Sprintf("%s already exists", path),
			nil,
		)
	}

	if template != "" && !templates.Exists(template) {
		return shared.NewBadUsageError(
			fmt.Sprintf("unknown template %q (run 'baton init --list-templates')", template),
			nil,
		)
	}

	a := answers{
		name:      name,
		paramName: paramName,
		paramType: paramType,
	}

	if a.name == "" {
		if !format.IsTTY() {
			return shared.NewBadUsageError(
				"no terminal attached and no --name given",
				nil,
			)
		}
		if err := runWizard(&a, path); err != nil {
			return err
		}
	}

	if err := validateAnswers(&a); err != nil {
		return err
	}

	var content string
	if template != "" {
		rendered, err := templates.Render(template, a.name)
		if err != nil {
			return shared.NewRenderError(fmt.Sprintf("rendering template %q", template), err)
		}
		content = string(rendered)
	} else {
		content = scaffold(a)
	}

	// The scaffold must itself be a valid manifest.
	if _, err := manifest.Parse([]byte(content)); err != nil {
		return shared.NewRenderError("generated manifest failed validation", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return shared.NewRenderError(fmt.Sprintf("creating %s", dir), err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return shared.NewRenderError(fmt.Sprintf("writing %s", path), err)
	}

	if !shared.GetQuiet() {
		fmt.Fprintln(cmd.ErrOrStderr(), shared.RenderOK(fmt.Sprintf("wrote %s", path)))
		fmt.Fprintln(cmd.ErrOrStderr(), shared.RenderLabel(fmt.Sprintf("  next: baton render %s", path)))
	}
	return nil
}

// runListTemplates prints the embedded templates.
func runListTemplates(cmd *cobra.Command) error {
	available, err := templates.List()
	if err != nil {
		return shared.NewRenderError("listing templates", err)
	}

	if shared.GetJSON() {
		type listResponse struct {
			output.JSONResponse
			Templates []templates.Template `json:"templates"`
		}
		return output.EmitJSON(listResponse{
			JSONResponse: output.JSONResponse{Version: "1.0", Command: "init", Success: true},
			Templates:    available,
		})
	}

	w := cmd.OutOrStdout()
	for _, t := range available {
		fmt.Fprintf(w, "%-14s %s\n", t.Name, t.Description)
	}
	return nil
}

// runWizard fills in the answers interactively.
func runWizard(a *answers, path string) error {
	defaultName := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	a.name = defaultName

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Pipeline name").
				Description("Identifies the pipeline in the service").
				Value(&a.name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Description").
				Description("Optional summary, kept in the manifest").
				Value(&a.description),
			huh.NewInput().
				Title("First parameter name").
				Description("Leave empty to skip").
				Value(&a.paramName),
			huh.NewSelect[string]().
				Title("Parameter type").
				Options(
					huh.NewOption("String", "String"),
					huh.NewOption("Integer", "Integer"),
					huh.NewOption("Float", "Float"),
					huh.NewOption("Boolean", "Boolean"),
				).
				Value(&a.paramType),
		),
	)

	if err := form.Run(); err != nil {
		if err == huh.ErrUserAborted {
			return shared.NewBadUsageError("init cancelled", nil)
		}
		return shared.NewRenderError("running setup form", err)
	}
	return nil
}

func validateAnswers(a *answers) error {
	switch a.paramType {
	case "String", "Integer", "Float", "Boolean":
	default:
		return shared.NewBadUsageError(
			fmt.Sprintf("unknown parameter type %q (use String, Integer, Float, Boolean)", a.paramType),
			nil,
		)
	}
	return nil
}

// scaffold renders the starter manifest.
func scaffold(a answers) string {
	var b strings.Builder

	b.WriteString("# Pipeline manifest for baton.\n")
	b.WriteString("# Render with: baton render <this file>\n")
	b.WriteString(fmt.Sprintf("name: %s\n", a.name))
	if a.description != "" {
		b.WriteString(fmt.Sprintf("description: %s\n", a.description))
	}

	if a.paramName != "" {
		b.WriteString("\n# Parameters are supplied per execution; defaults are optional.\n")
		b.WriteString("parameters:\n")
		b.WriteString(fmt.Sprintf("  - name: %s\n", a.paramName))
		b.WriteString(fmt.Sprintf("    type: %s\n", a.paramType))
	}

	b.WriteString("\nsteps:\n")
	b.WriteString("  - name: work\n")
	b.WriteString("    type: task\n")
	b.WriteString("    arguments:\n")
	b.WriteString("      image: example:latest\n")
	b.WriteString("\n")
	b.WriteString("  # Condition steps branch on parameters, execution variables,\n")
	b.WriteString("  # or properties of earlier steps:\n")
	b.WriteString("  #- name: gate\n")
	b.WriteString("  #  type: condition\n")
	b.WriteString("  #  when: 'work.Result == \"ok\"'\n")
	b.WriteString("  #  depends_on: [work]\n")

	return b.String()
}
