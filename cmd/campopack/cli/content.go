// Package cli holds the operator subcommands of the campopack binary.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/campopack/campopack-web/internal/content"
)

// ErrCheckFailed is returned when at least one content document is invalid.
var ErrCheckFailed = errors.New("content check failed")

type sourceFlags struct {
	variant string
	file    string
}

func (s *sourceFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.variant, "variant", content.DefaultVariant, "embedded site variant")
	cmd.Flags().StringVar(&s.file, "file", "", "content document on disk; overrides --variant")
}

func (s *sourceFlags) load() (*content.Site, error) {
	if s.file != "" {
		return content.LoadFile(s.file)
	}
	return content.Load(s.variant)
}

// NewContentCommand builds `content dump` and `content check`.
func NewContentCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "content",
		Short: "Inspect site content documents",
	}
	cmd.AddCommand(newContentDumpCommand(), newContentCheckCommand())
	return cmd
}

func newContentDumpCommand() *cobra.Command {
	var src sourceFlags
	var format string
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the resolved content of a site variant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			site, err := src.load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch strings.ToLower(format) {
			case "yaml", "yml":
				data, err := content.Marshal(site)
				if err != nil {
					return err
				}
				_, err = out.Write(data)
				return err
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(site)
			default:
				return fmt.Errorf("unsupported format %q (expected yaml or json)", format)
			}
		},
	}
	src.bind(cmd)
	cmd.Flags().StringVar(&format, "format", "yaml", "output format: yaml or json")
	return cmd
}

func newContentCheckCommand() *cobra.Command {
	var src sourceFlags
	var all bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate content documents",
		Long: `Validate one content document, or every embedded variant with --all.
Each problem is printed on its own line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !all {
				name := src.variant
				if src.file != "" {
					name = src.file
				}
				if _, err := src.load(); err != nil {
					reportProblems(out, name, err)
					return ErrCheckFailed
				}
				_, _ = fmt.Fprintf(out, "%s: ok\n", name)
				return nil
			}

			variants, err := content.Variants()
			if err != nil {
				return err
			}
			failed := 0
			for _, variant := range variants {
				if _, err := content.Load(variant); err != nil {
					failed++
					reportProblems(out, variant, err)
					continue
				}
				_, _ = fmt.Fprintf(out, "%s: ok\n", variant)
			}
			if failed > 0 {
				return fmt.Errorf("%w: %d of %d variants", ErrCheckFailed, failed, len(variants))
			}
			return nil
		},
	}
	src.bind(cmd)
	cmd.Flags().BoolVar(&all, "all", false, "check every embedded variant")
	return cmd
}

type multiError interface {
	Unwrap() []error
}

func reportProblems(out io.Writer, name string, err error) {
	var joined multiError
	if errors.As(err, &joined) {
		for _, problem := range joined.Unwrap() {
			_, _ = fmt.Fprintf(out, "%s: %v\n", name, problem)
		}
		return
	}
	_, _ = fmt.Fprintf(out, "%s: %v\n", name, err)
}
