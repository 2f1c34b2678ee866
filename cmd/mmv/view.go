package main

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Dicklesworthstone/mindmap_viewer/pkg/model"
	"github.com/Dicklesworthstone/mindmap_viewer/pkg/ui"
)

func viewCmd(opts *options) *cobra.Command {
	var src source
	var watch bool
	var logFile string

	cmd := &cobra.Command{
		Use:   "view [topic]",
		Short: "Open the interactive mind map in the terminal",
		Long: "Open the interactive mind map. The tree comes from --file, or is generated\n" +
			"for the topic by the configured generator. With --watch the file is reloaded\n" +
			"whenever it changes.",
		RunE: func(cmd *cobra.Command, args []string) error {
			src.topic = topicArg(args)
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return fmt.Errorf("view needs a terminal; use render or export instead")
			}
			if watch && (src.file == "" || src.file == "-") {
				return fmt.Errorf("--watch needs --file")
			}

			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			// The program owns the terminal, so logs go to a file or nowhere.
			var logOut io.Writer = io.Discard
			if logFile != "" {
				f, err := tea.LogToFile(logFile, "mmv")
				if err != nil {
					return fmt.Errorf("open log file: %w", err)
				}
				defer f.Close()
				logOut = f
			}
			logger := newLogger(opts, logOut)

			var tree *model.Tree
			topic := src.topic
			if src.file != "" {
				tree, topic, err = loadTree(cmd.Context(), cmd, cfg, src, logger)
				if err != nil {
					return err
				}
			}
			gen := newGenerator(cfg)
			if tree == nil && (gen == nil || topic == "") {
				return errNoSource
			}

			m := ui.NewModel(tree,
				ui.WithTopic(topic),
				ui.WithGenerator(gen),
				ui.WithEngine(cfg.Engine()),
				ui.WithStyle(cfg.Style()),
				ui.WithLimits(cfg.TreeLimits()),
				ui.WithExportDir(cfg.Export.Dir),
				ui.WithLogger(logger),
			)
			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion())

			if watch {
				worker, err := ui.NewBackgroundWorker(ui.WorkerConfig{
					Path:          src.file,
					DebounceDelay: cfg.Watch.Debounce,
					Limits:        cfg.TreeLimits(),
					Program:       p,
					Logger:        logger,
				})
				if err != nil {
					return err
				}
				if err := worker.Start(); err != nil {
					return err
				}
				defer worker.Stop()
			}

			_, err = p.Run()
			return err
		},
	}
	src.addFlags(cmd)
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Reload the tree file when it changes")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to this file")
	return cmd
}
