package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/atelier/internal/cli"
	"github.com/aretw0/atelier/internal/presentation/tui"
	"github.com/aretw0/atelier/pkg/domain"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate <session-id>",
	Short: "Run a generation job with live progress",
	Long: `Runs a text-to-3D (or image-to-3D with --image) generation for a session.
The result is recorded in the history. Ctrl+C cancels the job.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prompt, _ := cmd.Flags().GetString("prompt")
		image, _ := cmd.Flags().GetBool("image")

		source := domain.SourceText
		if image {
			source = domain.SourceImage
		}
		return runJob(cmd, args[0], domain.JobGeneration, source, func(ctx context.Context, studio jobStudio) error {
			if prompt == "" {
				return nil
			}
			return studio.SetPrompt(ctx, args[0], prompt)
		})
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <session-id>",
	Short: "Run an export job with live progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")

		return runJob(cmd, args[0], domain.JobExport, "", func(ctx context.Context, studio jobStudio) error {
			if format == "" {
				return nil
			}
			doc, err := studio.Document(ctx, args[0])
			if err != nil {
				return err
			}
			opts := doc.ExportOptions
			opts.Format = format
			return studio.SetExportOptions(ctx, args[0], opts)
		})
	},
}

type jobStudio interface {
	cli.JobRunner
	Document(ctx context.Context, sessionID string) (*domain.Document, error)
	SetPrompt(ctx context.Context, sessionID, prompt string) error
	SetExportOptions(ctx context.Context, sessionID string, opts domain.ExportOptions) error
}

func runJob(cmd *cobra.Command, sessionID string, kind domain.JobKind, source domain.GenerationSource, prepare func(context.Context, jobStudio) error) error {
	studio, closeStudio, _, err := openStudio(cmd, true, nil)
	if err != nil {
		return err
	}
	defer closeStudio()

	sigCtx := cli.NewSignalContext(cmd.Context())
	defer sigCtx.Cancel()

	if _, err := studio.Open(sigCtx, sessionID); err != nil {
		return err
	}
	if err := prepare(sigCtx, studio); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	p, err := cli.RunJob(sigCtx, studio, sessionID, kind, source, out, tui.IsTerminal(os.Stdout))
	if errors.Is(err, context.Canceled) && sigCtx.Signal() != nil {
		fmt.Fprintf(out, "%s cancelled [%v]\n", kind, sigCtx.Signal())
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %s\n", kind, p.Status)
	return nil
}

func init() {
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(exportCmd)

	generateCmd.Flags().StringP("prompt", "p", "", "Prompt to generate from (stored on the session)")
	generateCmd.Flags().Bool("image", false, "Generate from an image instead of the prompt")
	exportCmd.Flags().StringP("format", "f", "", "Export format, e.g. glTF, FBX, OBJ")
}
