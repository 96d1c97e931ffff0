package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dhamidi/javap/classfile"
	"github.com/dhamidi/javap/format"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		verbosity       int
		constants       bool
		lineNumbers     bool
		methodDetails   bool
		skipMissingCode bool
	)

	rootCmd := &cobra.Command{
		Use:          "javap <classfile>",
		Short:        "Disassemble a Java class file",
		Version:      version,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			commonlog.Configure(verbosity, nil)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []format.Option
			if constants {
				opts = append(opts, format.WithConstants())
			}
			if lineNumbers {
				opts = append(opts, format.WithLineNumbers())
			}
			if methodDetails {
				opts = append(opts, format.WithMethodDetails())
			}
			if skipMissingCode {
				opts = append(opts, format.WithSkipMissingCode())
			}
			return disassemble(cmd, args[0], opts)
		},
	}

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "log verbosity (repeat for more)")
	rootCmd.Flags().BoolVarP(&constants, "constants", "c", false, "show resolved constants next to instructions")
	rootCmd.Flags().BoolVarP(&lineNumbers, "lines", "l", false, "print line number tables")
	rootCmd.Flags().BoolVar(&methodDetails, "method-details", false, "print method flags and args_size")
	rootCmd.Flags().BoolVar(&skipMissingCode, "skip-missing-code", false, "list methods without code instead of failing")

	rootCmd.AddCommand(newLSPCmd())

	return rootCmd
}

func disassemble(cmd *cobra.Command, filename string, opts []format.Option) error {
	path, err := canonicalPath(filename)
	if err != nil {
		return err
	}

	cf, err := classfile.ParseFile(path)
	if err != nil {
		return fmt.Errorf("parse class file: %w", err)
	}

	opts = append([]format.Option{format.WithFilePath(path)}, opts...)
	enc := format.NewJavapEncoder(cmd.OutOrStdout(), opts...)
	if err := enc.Encode(cf); err != nil {
		return fmt.Errorf("disassemble %s: %w", path, err)
	}
	return nil
}

// canonicalPath returns the absolute, symlink-free form of filename.
func canonicalPath(filename string) (string, error) {
	abs, err := filepath.Abs(filename)
	if err != nil {
		return "", err
	}
	path, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	return path, nil
}
