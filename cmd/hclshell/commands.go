package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"pkt.systems/pslog"

	"github.com/flowave-io/hclshell/internal/cli"
	"github.com/flowave-io/hclshell/internal/config"
	"github.com/flowave-io/hclshell/internal/monitor"
	hlog "github.com/flowave-io/hclshell/pkg/log"
)

type rootFlags struct {
	config string
	cli.Overrides
}

func newRootCmd() *cobra.Command {
	var f rootFlags
	root := &cobra.Command{
		Use:   "hclshell",
		Short: "Interactive console for HCL and Terraform expressions",
		Long: `hclshell evaluates HCL expressions against the variables, locals and
resources of a Terraform or OpenTofu module. Type '.' after a name for
completions and '(' after a function for its signature.

With piped input each line is evaluated and results are printed:
  echo 'upper("x")' | hclshell`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(f.config)
			if err != nil {
				return err
			}
			f.Apply(&cfg)
			logger, closer, err := hlog.Open(cfg.Log.File, hlog.Options{Level: cfg.Log.Level, Mode: cfg.Log.Mode})
			if err != nil {
				return err
			}
			defer closer.Close()
			ctx := pslog.ContextWithLogger(cmd.Context(), logger)
			return cli.RunConsole(ctx, cfg, os.Stdin, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVar(&f.config, "config", "", "config file (default ~/.hclshell/config.yaml)")
	root.Flags().StringVarP(&f.Workspace, "workspace", "w", "", "module directory or go-getter source to load")
	root.Flags().StringArrayVar(&f.VarFiles, "var-file", nil, "additional .tfvars file (repeatable)")
	root.Flags().StringVar(&f.State, "state", "", "local state file to read resource values from")
	root.Flags().StringVar(&f.Backend, "backend", "", "evaluation backend: native or terraform")
	root.Flags().BoolVar(&f.NoWatch, "no-watch", false, "do not reload when workspace files change")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newConfigCmd(&f.config))
	root.AddCommand(newWatchCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the hclshell version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "hclshell %s\n", version)
		},
	}
}

func newConfigCmd(path *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*path)
			if err != nil {
				return err
			}
			data, err := config.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})
	var overwrite bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			written, err := config.WriteDefault(*path, overwrite)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", written)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&overwrite, "force", false, "overwrite an existing file")
	cmd.AddCommand(initCmd)
	return cmd
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [dir]",
		Short: "Print a line each time workspace files change",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			abs, err := filepath.Abs(dir)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			w, err := monitor.Watch(ctx, abs, nil, 0)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "watching", abs)
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-w.C:
					fmt.Fprintln(cmd.OutOrStdout(), "workspace changed")
				}
			}
		},
	}
}
