/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"nebula/internal/config"
	"nebula/internal/export"
	"nebula/internal/host"
	applog "nebula/internal/log"
	"nebula/internal/mindmap"
	"nebula/internal/render"
	"nebula/internal/storage"
	"nebula/internal/telemetry"
	"nebula/internal/ui"
	"nebula/internal/version"
)

var (
	brand  = color.New(color.FgHiMagenta, color.Bold)
	subtle = color.New(color.FgHiBlack)
	good   = color.New(color.FgGreen)
	bad    = color.New(color.FgRed)
	warn   = color.New(color.FgYellow)
)

var (
	cfg config.AppConfig
	// current is the document a command is working on, for crash snapshots.
	current *storage.Handle
	// shell does all document I/O for the commands.
	shell host.Shell
	// fromBackup lets info and export fall back to the latest backup of a
	// document that does not parse.
	fromBackup bool
	// runUI is replaced in tests.
	runUI = ui.Run
)

func currentDocument() *storage.Handle { return current }

var errViolations = errors.New("document has violations")

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "nebula [file.neb]",
		Short: "Nebula: an infinite-canvas mind map",
		Long: brand.Sprint("nebula") + ": an infinite-canvas mind map\n" +
			subtle.Sprint("Run without a command to open the desktop editor."),
		Version:       version.String(),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			applog.Init(applog.FromConfig(loaded.Logging))
			if err != nil {
				applog.WithComponent("cli").Warn("config file ignored", slog.Any("err", err))
			}
			cfg = loaded
			shell = host.NewOSShell(nil, cfg.General.FileExtension)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			telemetry.Default().Flush(ctx)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := host.LaunchPathFromArgs(args, cfg.General.FileExtension)
			if path == "" && len(args) == 1 {
				return fmt.Errorf("%s is not a %s document", args[0], cfg.General.FileExtension)
			}
			applog.WithComponent("cli").Info("launching UI", slog.String("path", path))
			return runUI(path)
		},
	}
	root.PersistentFlags().BoolVar(&fromBackup, "from-backup", false, "if the document does not parse, use its latest backup")
	root.SetVersionTemplate("nebula {{ .Version }}\n")
	root.AddCommand(newCmd(), infoCmd(), validateCmd(), exportCmd(), versionCmd())
	return root
}

func policy() storage.Policy {
	p, err := storage.ParsePolicy(cfg.Import.Validation)
	if err != nil {
		return storage.Repair
	}
	return p
}

func newCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "new <file>",
		Short: "Create a document holding only the central topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := withExt(args[0])
			if shell.FileExists(path) && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			store := mindmap.New()
			current = &storage.Handle{Path: path, Nodes: store.Nodes()}
			if err := storage.Save(shell, current); err != nil {
				return err
			}
			good.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func withExt(path string) string {
	if filepath.Ext(path) == "" {
		return path + cfg.General.FileExtension
	}
	return path
}

// openDocument opens path through the shell. A parse failure is returned
// unless --from-backup was given, in which case the latest backup is used.
func openDocument(path string) (*storage.Handle, error) {
	h, err := storage.Open(shell, path, policy())
	var pe *storage.ParseError
	if errors.As(err, &pe) && fromBackup {
		h, err = storage.OpenLatestBackup(shell, path, policy())
		if err != nil {
			return nil, fmt.Errorf("%s does not parse (%v) and no backup could be used: %w", path, pe, err)
		}
	}
	if err != nil {
		return nil, err
	}
	current = h
	return h, nil
}

func warnIfRestored(w io.Writer, h *storage.Handle) {
	if h.FromBackup {
		warn.Fprintf(w, "warning: %s does not parse; using its latest backup\n", h.Path)
	}
}

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <file>",
		Short: "Print the node tree of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := openDocument(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s  %s\n", brand.Sprintf("%-10s", "Document"), h.Path)
			fmt.Fprintf(out, "%s  %d\n", brand.Sprintf("%-10s", "Nodes"), len(h.Nodes))
			warnIfRestored(cmd.ErrOrStderr(), h)
			for _, v := range h.Violations {
				warn.Fprintf(out, "  repaired: %s\n", v)
			}
			fmt.Fprintln(out)
			printTree(out, h.Nodes)
			return nil
		},
	}
}

// printTree writes roots first and children indented under their parent,
// in document order.
func printTree(w io.Writer, nodes []mindmap.Node) {
	children := map[string][]mindmap.Node{}
	var roots []mindmap.Node
	for _, n := range nodes {
		if n.IsRoot || n.ParentID == "" {
			roots = append(roots, n)
			continue
		}
		children[n.ParentID] = append(children[n.ParentID], n)
	}
	seen := map[string]bool{}
	var walk func(n mindmap.Node, depth int)
	walk = func(n mindmap.Node, depth int) {
		if seen[n.ID] {
			return
		}
		seen[n.ID] = true
		label := n.Text
		if strings.TrimSpace(label) == "" {
			label = subtle.Sprint("(empty)")
		}
		marker := "•"
		if n.IsRoot {
			marker = brand.Sprint("◉")
		}
		extra := ""
		if n.Image != "" {
			extra = subtle.Sprint(" [image]")
		}
		fmt.Fprintf(w, "%s%s %s%s %s\n", strings.Repeat("  ", depth), marker, label, extra, subtle.Sprintf("(%s)", n.ID))
		for _, c := range children[n.ID] {
			walk(c, depth+1)
		}
	}
	for _, r := range roots {
		walk(r, 0)
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a document against the schema and the tree rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := shell.ReadFile(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			doc, err := storage.Decode(data, storage.Tolerate)
			var pe *storage.ParseError
			if errors.As(err, &pe) {
				for _, d := range pe.Details {
					bad.Fprintf(out, "  schema: %s\n", d)
				}
				return err
			}
			if err != nil {
				return err
			}
			if len(doc.Violations) > 0 {
				for _, v := range doc.Violations {
					bad.Fprintf(out, "  %s\n", v)
				}
				return fmt.Errorf("%w: %d found", errViolations, len(doc.Violations))
			}
			good.Fprintf(out, "OK: %d nodes, one tree\n", len(doc.Nodes))
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	var format, outPath, footprint, theme string
	var scale float64
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Render a document to PDF, PNG or SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = cfg.Export.Format
			}
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			if footprint == "" {
				footprint = cfg.Export.Footprint
			}
			if scale <= 0 {
				scale = cfg.Export.Scale
			}
			if theme == "" {
				theme = cfg.General.Theme
			}
			h, err := openDocument(args[0])
			if err != nil {
				return err
			}
			warnIfRestored(cmd.ErrOrStderr(), h)
			if outPath == "" {
				outPath = strings.TrimSuffix(h.Path, filepath.Ext(h.Path)) + f.Ext()
			}
			ex := export.NewExporter(export.Options{
				Theme:     render.ParseTheme(theme),
				Footprint: export.ParseFootprint(footprint),
				Padding:   cfg.Export.Padding,
				Scale:     scale,
			})
			if err := ex.ExportFile(context.Background(), outPath, f, h.Nodes); err != nil {
				return err
			}
			telemetry.Default().Track("export", map[string]any{"format": string(f), "nodes": len(h.Nodes), "surface": "cli"})
			good.Fprintf(cmd.OutOrStdout(), "Exported %d nodes to %s\n", len(h.Nodes), outPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: pdf, png or svg (default from config)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default: next to the document)")
	cmd.Flags().StringVar(&footprint, "footprint", "", "node extent for bounds: live or fixed")
	cmd.Flags().Float64Var(&scale, "scale", 0, "raster pixels per world unit")
	cmd.Flags().StringVar(&theme, "theme", "", "color theme: dark or light")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", brand.Sprint("nebula"), version.String())
		},
	}
}
