package main

import (
	"fmt"
	"log/slog"

	"github.com/maja42/starglue"
	"github.com/maja42/starglue/embedding"
	"github.com/maja42/starglue/internal/config"
	"github.com/spf13/cobra"
)

// Version information (set at build time).
var Version = "0.1.0"

// usageError is reported without the program name prefix.
type usageError string

func (e usageError) Error() string {
	return string(e)
}

// usageArgs accepts exactly the three positional arguments of the packager.
func usageArgs(progName string) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) != 3 {
			return usageError(fmt.Sprintf("usage: %s in.exe in.star out.exe", progName))
		}
		return nil
	}
}

func newRootCmd(progName string) *cobra.Command {
	var cfgFile string
	var cfg *config.Packager

	rootCmd := &cobra.Command{
		Use:   progName + " [flags] in.exe in.star out.exe",
		Short: "Glue a Starlark script onto an interpreter executable",
		Long: `starglue writes out.exe: the bytes of in.exe, followed by the bytes of in.star,
followed by a trailer recording both sizes.

If in.exe is the starrun interpreter, out.exe runs the script when executed.
A first script line starting with '#' is ignored by the interpreter, so scripts
can keep their shebang line.`,
		Version: Version,
		Args:    usageArgs(progName),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			var err error
			cfg, err = config.LoadPackager(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			if cfg.ConfigFile != "" {
				newLogger(cmd, cfg).Info("Using config file", "path", cfg.ConfigFile)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return embedding.GlueFiles(args[0], args[1], args[2], embedding.Options{
				ChunkSize:   cfg.ChunkSize,
				KeepPartial: cfg.KeepPartial,
				Logger:      newLogger(cmd, cfg),
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./"+config.DefaultConfigFile+")")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Report progress")
	rootCmd.Flags().Bool("keep-partial", false, "Keep an incomplete output file if gluing fails")
	rootCmd.Flags().Int("chunk-size", config.DefaultChunkSize, "Size of the copy buffer in bytes")

	rootCmd.AddCommand(newInspectCmd())
	return rootCmd
}

func newLogger(cmd *cobra.Command, cfg *config.Packager) *slog.Logger {
	return config.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel())
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show the sizes recorded in a combined file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := starglue.OpenExe(args[0])
			if err != nil {
				return err
			}
			defer script.Close()

			r, err := script.Reader()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "executable: %d bytes\n", script.Offset())
			fmt.Fprintf(w, "script:     %d bytes\n", script.Size())
			fmt.Fprintf(w, "shebang:    %d bytes\n", script.Size()-r.Remaining())
			return nil
		},
	}
}
