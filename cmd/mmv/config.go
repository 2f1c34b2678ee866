package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Dicklesworthstone/mindmap_viewer/pkg/config"
)

func configCmd(opts *options) *cobra.Command {
	var initDir string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration, or write a default one",
		Long: "Print the configuration mmv would use from this directory as YAML.\n" +
			"With --init, write the defaults to <dir>/" + config.DirName + "/" + config.FileName + ".",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("init") {
				path := filepath.Join(initDir, config.DirName, config.FileName)
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists", path)
				}
				if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
					return fmt.Errorf("create config dir: %w", err)
				}
				if err := config.Save(config.DefaultConfig(), path); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			}

			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if cfg.Path != "" {
				fmt.Fprintf(out, "# %s\n", cfg.Path)
			} else {
				fmt.Fprintln(out, "# defaults")
			}
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(cfg)
		},
	}
	cmd.Flags().StringVar(&initDir, "init", ".", "Write a default config under this directory")
	cmd.Flags().Lookup("init").NoOptDefVal = "."
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mmv %s\n", version)
		},
	}
}
