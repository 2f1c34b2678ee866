// Command mmv views concept trees as interactive mind maps and renders or
// exports them headlessly.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/mindmap_viewer/pkg/config"
	"github.com/Dicklesworthstone/mindmap_viewer/pkg/generator"
	"github.com/Dicklesworthstone/mindmap_viewer/pkg/model"
)

var version = "dev"

// options are the persistent flags shared by every subcommand.
type options struct {
	configPath string
	verbose    bool
	debug      bool
}

// source selects where a command's tree comes from: a file, or a topic
// handed to the configured generator.
type source struct {
	file  string
	topic string
}

func (s *source) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.file, "file", "f", "", "Read the concept tree from a JSON file ('-' for stdin)")
}

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "mmv: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "mmv",
		Short:         "mmv - mind map viewer",
		Long:          "View a hierarchical concept tree as an interactive mind map, or render and export it.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetVersionTemplate("mmv {{ .Version }}\n")

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Config file (default: discovered .mindmap/config.yaml)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Log informational messages")
	pf.BoolVar(&opts.debug, "debug", false, "Log debug messages")

	root.AddCommand(
		viewCmd(opts),
		layoutCmd(opts),
		renderCmd(opts),
		exportCmd(opts),
		serveCmd(opts),
		validateCmd(opts),
		configCmd(opts),
		versionCmd(),
	)
	return root
}

// newLogger returns a text logger at a level chosen by the verbosity flags.
func newLogger(opts *options, w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if opts.debug {
		level = slog.LevelDebug
	} else if opts.verbose {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// loadConfig reads --config when given, otherwise the discovered file.
func loadConfig(opts *options) (*config.Config, error) {
	if opts.configPath != "" {
		if _, err := os.Stat(opts.configPath); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		return config.LoadFromPath(opts.configPath)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return config.Load(wd)
}

// newGenerator builds the configured generator, or nil when none is set.
func newGenerator(cfg *config.Config) generator.Generator {
	switch {
	case len(cfg.Generator.Command) > 0:
		return generator.NewCommandGenerator(cfg.Generator.Command, cfg.Generator.Timeout)
	case cfg.Generator.Dir != "":
		return generator.DirGenerator{Dir: cfg.Generator.Dir}
	default:
		return nil
	}
}

var errNoSource = errors.New("no tree: pass --file or a topic with a generator configured")

// readConcept decodes the tree named by src.file.
func readConcept(cmd *cobra.Command, src source) (model.Concept, error) {
	if src.file == "-" {
		c, err := model.Decode(cmd.InOrStdin())
		if err != nil {
			return model.Concept{}, fmt.Errorf("decode stdin: %w", err)
		}
		return c, nil
	}
	return generator.LoadFile(src.file)
}

// loadTree resolves src to an indexed tree and the topic it represents.
func loadTree(ctx context.Context, cmd *cobra.Command, cfg *config.Config, src source, logger *slog.Logger) (*model.Tree, string, error) {
	if src.file != "" {
		c, err := readConcept(cmd, src)
		if err != nil {
			return nil, "", err
		}
		tree, err := model.NewTree(c, cfg.TreeLimits())
		if err != nil {
			return nil, "", err
		}
		topic := src.topic
		if topic == "" {
			topic = tree.Root().Label
		}
		logger.Info("loaded tree", "file", src.file, "nodes", tree.Len())
		return tree, topic, nil
	}

	gen := newGenerator(cfg)
	if gen == nil || strings.TrimSpace(src.topic) == "" {
		return nil, "", errNoSource
	}
	logger.Info("generating", "topic", src.topic)
	tree, err := generator.Build(ctx, gen, src.topic, cfg.TreeLimits())
	if err != nil {
		return nil, "", err
	}
	return tree, src.topic, nil
}

func topicArg(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
