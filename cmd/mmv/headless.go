package main

import (
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/mindmap_viewer/pkg/config"
	"github.com/Dicklesworthstone/mindmap_viewer/pkg/export"
	"github.com/Dicklesworthstone/mindmap_viewer/pkg/interaction"
	"github.com/Dicklesworthstone/mindmap_viewer/pkg/layout"
	"github.com/Dicklesworthstone/mindmap_viewer/pkg/model"
	"github.com/Dicklesworthstone/mindmap_viewer/pkg/render"
)

// viewFlags describe a static view of the map for the headless commands.
type viewFlags struct {
	width    float64
	height   float64
	zoom     float64
	selected string
	collapse []string
}

func (v *viewFlags) addFlags(cmd *cobra.Command, withViewport bool) {
	f := cmd.Flags()
	f.Float64Var(&v.zoom, "zoom", interaction.DefaultZoom, "Zoom factor (clamped to 0.5-2.0)")
	f.StringSliceVar(&v.collapse, "collapse", nil, "Node ids to collapse (repeatable or comma separated)")
	if withViewport {
		f.Float64Var(&v.width, "width", 1280, "Viewport width in pixels")
		f.Float64Var(&v.height, "height", 800, "Viewport height in pixels")
		f.StringVar(&v.selected, "select", "", "Node id to select, opening its explanation panel")
	}
}

// controller replays the flags onto a fresh controller for tree.
func (v viewFlags) controller(cfg *config.Config, tree *model.Tree) (*interaction.Controller, error) {
	c := interaction.New(cfg.Engine(), tree,
		interaction.Size{W: v.width, H: v.height},
		interaction.WithZoom(v.zoom))
	for _, id := range v.collapse {
		if !tree.Contains(id) {
			return nil, fmt.Errorf("--collapse: unknown node %q", id)
		}
		if c.Frame().Expanded.IsExpanded(id) {
			c.ToggleExpand(id)
		}
	}
	if v.selected != "" {
		if !tree.Contains(v.selected) {
			return nil, fmt.Errorf("--select: unknown node %q", v.selected)
		}
		c.Select(v.selected)
	}
	return c, nil
}

// layoutOutput is the JSON document printed by the layout command.
type layoutOutput struct {
	Topic     string                  `json:"topic"`
	Zoom      float64                 `json:"zoom"`
	Collapsed []string                `json:"collapsed"`
	Order     []string                `json:"order"`
	Positions map[string]layout.Point `json:"placements"`
	Edges     []layout.Edge           `json:"edges"`
}

func layoutCmd(opts *options) *cobra.Command {
	var src source
	var view viewFlags

	cmd := &cobra.Command{
		Use:   "layout [topic]",
		Short: "Print node placements as JSON",
		Long:  "Lay out the tree with the root at the origin and print placements and edges as JSON.",
		RunE: func(cmd *cobra.Command, args []string) error {
			src.topic = topicArg(args)
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			tree, topic, err := loadTree(cmd.Context(), cmd, cfg, src, newLogger(opts, cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			c, err := view.controller(cfg, tree)
			if err != nil {
				return err
			}

			f := c.Frame()
			out := layoutOutput{
				Topic:     topic,
				Zoom:      f.Layout.Zoom,
				Collapsed: f.Expanded.Collapsed(),
				Order:     f.Layout.Order,
				Positions: f.Layout.Placements,
				Edges:     f.Layout.Edges,
			}
			if out.Edges == nil {
				out.Edges = []layout.Edge{}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	src.addFlags(cmd)
	view.addFlags(cmd, false)
	return cmd
}

func renderCmd(opts *options) *cobra.Command {
	var src source
	var view viewFlags
	var output string

	cmd := &cobra.Command{
		Use:   "render [topic]",
		Short: "Render the mind map to an SVG or PNG image",
		RunE: func(cmd *cobra.Command, args []string) error {
			src.topic = topicArg(args)
			if output == "" {
				return fmt.Errorf("--output is required")
			}
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			logger := newLogger(opts, cmd.ErrOrStderr())
			tree, _, err := loadTree(cmd.Context(), cmd, cfg, src, logger)
			if err != nil {
				return err
			}
			c, err := view.controller(cfg, tree)
			if err != nil {
				return err
			}
			scene := render.Build(tree, c.Frame(), cfg.Style())
			if err := export.SaveImage(output, scene); err != nil {
				return err
			}
			logger.Info("rendered", "path", output, "nodes", len(scene.Nodes))
			fmt.Fprintln(cmd.OutOrStdout(), output)
			return nil
		},
	}
	src.addFlags(cmd)
	view.addFlags(cmd, true)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Image path; the extension picks svg or png")
	return cmd
}

func exportCmd(opts *options) *cobra.Command {
	var src source
	var view viewFlags
	var dir string
	var formats []string
	var gitignore bool

	cmd := &cobra.Command{
		Use:   "export [topic]",
		Short: "Save the tree as JSON, or as a bundle of formats",
		Long: "Export the tree. With only the json format the file is named after the topic\n" +
			"(<topic>.json) and can be imported again; other formats render the initial view.",
		RunE: func(cmd *cobra.Command, args []string) error {
			src.topic = topicArg(args)
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			logger := newLogger(opts, cmd.ErrOrStderr())
			tree, topic, err := loadTree(cmd.Context(), cmd, cfg, src, logger)
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.Export.Dir
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create export dir: %w", err)
			}
			if gitignore {
				wd, err := os.Getwd()
				if err != nil {
					return err
				}
				if err := export.EnsureIgnored(wd, dir); err != nil {
					return fmt.Errorf("--gitignore: %w", err)
				}
			}

			parsed := make([]export.Format, 0, len(formats))
			for _, s := range formats {
				f, err := export.ParseFormat(s)
				if err != nil {
					return err
				}
				parsed = append(parsed, f)
			}

			var paths []string
			if len(parsed) == 1 && parsed[0] == export.FormatJSON {
				path, err := export.SaveJSON(dir, topic, tree.Concept())
				if err != nil {
					return err
				}
				paths = []string{path}
			} else {
				c, err := view.controller(cfg, tree)
				if err != nil {
					return err
				}
				paths, err = export.Snapshot(cmd.Context(), export.SnapshotOptions{
					Dir:     dir,
					Topic:   topic,
					Tree:    tree,
					Scene:   render.Build(tree, c.Frame(), cfg.Style()),
					Formats: parsed,
				})
				if err != nil {
					return err
				}
			}
			for _, p := range paths {
				logger.Info("exported", "path", p)
				fmt.Fprintln(cmd.OutOrStdout(), filepath.Clean(p))
			}
			return nil
		},
	}
	src.addFlags(cmd)
	view.addFlags(cmd, true)
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Output directory (default: export.dir from config)")
	cmd.Flags().StringSliceVar(&formats, "format", []string{"json"}, "Formats to write: json, md, svg, png")
	cmd.Flags().BoolVar(&gitignore, "gitignore", false, "Add the export directory to ./.gitignore")
	return cmd
}

func validateCmd(opts *options) *cobra.Command {
	var src source
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a tree file against the generator contract",
		RunE: func(cmd *cobra.Command, args []string) error {
			if src.file == "" {
				return fmt.Errorf("--file is required")
			}
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			c, err := readConcept(cmd, src)
			if err != nil {
				return err
			}
			problems := model.Validate(c, cfg.TreeLimits())

			out := cmd.OutOrStdout()
			if asJSON {
				if problems == nil {
					problems = []model.Problem{}
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(problems); err != nil {
					return err
				}
			} else {
				for _, p := range problems {
					fmt.Fprintln(out, p.String())
				}
				if len(problems) == 0 {
					fmt.Fprintln(out, "ok")
				}
			}
			if len(problems) > 0 {
				return fmt.Errorf("%d problem(s) found", len(problems))
			}
			return nil
		},
	}
	src.addFlags(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print problems as JSON")
	return cmd
}
