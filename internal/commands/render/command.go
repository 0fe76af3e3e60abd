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

// Package render implements 'baton render': manifest in, definition
// document out.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/tombee/baton/internal/commands/shared"
	"github.com/tombee/baton/internal/config"
	"github.com/tombee/baton/internal/log"
	"github.com/tombee/baton/internal/output"
	"github.com/tombee/baton/pkg/pipeline/manifest"
)

// debounceWindow coalesces editor save bursts (write + chmod + rename)
// into a single re-render.
const debounceWindow = 200 * time.Millisecond

// NewCommand creates the render command
func NewCommand() *cobra.Command {
	var (
		outPath string
		compact bool
		watch   bool
	)

	cmd := &cobra.Command{
		Use:   "render <manifest>",
		Short: "Render a manifest into a definition document",
		Long: `Render compiles a YAML manifest into the JSON definition document a
pipeline service consumes. Parameters, steps, and condition expressions
are validated during rendering; the output is deterministic for an
unchanged manifest.

With --watch, the manifest is re-rendered whenever the file changes.`,
		Example: `  # Render to stdout
  baton render pipeline.yaml

  # Render to a file, re-rendering on change
  baton render pipeline.yaml --out pipeline.json --watch

  # Compact output for embedding
  baton render pipeline.yaml --compact`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, args[0], outPath, compact, watch)
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the definition to a file instead of stdout")
	cmd.Flags().BoolVar(&compact, "compact", false, "Emit compact JSON without indentation")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Re-render whenever the manifest changes")

	return cmd
}

func runRender(cmd *cobra.Command, manifestPath, outPath string, compact, watch bool) error {
	settings, err := config.Load(shared.GetConfigPath())
	if err != nil {
		return shared.NewRenderError("loading config", err)
	}

	logger := log.New(log.FromEnv())

	if err := renderOnce(cmd, manifestPath, outPath, compact, settings); err != nil {
		if !watch {
			return renderFailure(err)
		}
		// In watch mode a broken manifest is reported, not fatal: the
		// next save gets another chance.
		fmt.Fprintln(cmd.ErrOrStderr(), shared.RenderError(err.Error()))
	}

	if !watch {
		return nil
	}

	logger.Info("watching manifest", log.String(log.ManifestKey, manifestPath))
	return watchLoop(cmd, manifestPath, outPath, compact, settings)
}

// renderJSONError builds the E101 envelope entry for a failed render.
func renderJSONError(err error) output.JSONError {
	return output.JSONError{
		Code:       shared.ErrorCodeRenderFailed,
		Message:    err.Error(),
		Suggestion: "Run 'baton validate' on the manifest for detailed errors",
	}
}

// renderFailure reports a failed render; with --json the error goes out
// as an envelope instead of stderr text, keeping the exit code.
func renderFailure(err error) error {
	if !shared.GetJSON() {
		return err
	}

	_ = output.EmitJSONError("render", []output.JSONError{renderJSONError(err)})

	code := shared.ExitRenderFailed
	var exitErr *shared.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.Code
	}
	return &shared.ExitError{Code: code}
}

// renderOnce loads, validates, and writes the definition a single time.
func renderOnce(cmd *cobra.Command, manifestPath, outPath string, compact bool, settings *config.Settings) error {
	p, err := manifest.Load(manifestPath)
	if err != nil {
		return shared.NewInvalidManifestError(fmt.Sprintf("manifest %s is invalid", manifestPath), err)
	}

	doc := p.ToRequest()

	var data []byte
	if compact {
		data, err = json.Marshal(doc)
	} else {
		data, err = json.MarshalIndent(doc, "", settings.Output.Indent)
	}
	if err != nil {
		return shared.NewRenderError("marshaling definition", err)
	}
	data = append(data, '\n')

	if outPath != "" {
		if err := os.WriteFile(outPath, data, 0644); err != nil {
			return shared.NewRenderError(fmt.Sprintf("writing %s", outPath), err)
		}
		if !shared.GetQuiet() {
			fmt.Fprintln(cmd.ErrOrStderr(), shared.RenderOK(fmt.Sprintf("rendered %s -> %s", manifestPath, outPath)))
		}
		return nil
	}

	if shared.GetJSON() {
		type renderResponse struct {
			output.JSONResponse
			Pipeline   string         `json:"pipeline"`
			Definition map[string]any `json:"definition"`
		}
		return output.EmitJSON(renderResponse{
			JSONResponse: output.JSONResponse{Version: "1.0", Command: "render", Success: true},
			Pipeline:     p.Name,
			Definition:   doc,
		})
	}

	_, err = cmd.OutOrStdout().Write(data)
	return err
}

// watchLoop re-renders on every change to the manifest file until
// interrupted. Watching the parent directory keeps the watch alive
// across editors that replace the file on save.
func watchLoop(cmd *cobra.Command, manifestPath, outPath string, compact bool, settings *config.Settings) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return shared.NewRenderError("creating file watcher", err)
	}
	defer watcher.Close()

	absPath, err := filepath.Abs(manifestPath)
	if err != nil {
		return shared.NewRenderError("resolving manifest path", err)
	}
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		return shared.NewRenderError("watching manifest directory", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var debounce *time.Timer
	renders := make(chan struct{}, 1)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != absPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceWindow, func() {
				select {
				case renders <- struct{}{}:
				default:
				}
			})

		case <-renders:
			if err := renderOnce(cmd, manifestPath, outPath, compact, settings); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), shared.RenderError(err.Error()))
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintln(cmd.ErrOrStderr(), shared.RenderWarn(fmt.Sprintf("watch error: %v", err)))

		case <-sigCh:
			return nil
		}
	}
}
