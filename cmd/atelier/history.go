package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/atelier"
	"github.com/aretw0/atelier/internal/presentation/tui"
	"github.com/aretw0/atelier/pkg/domain"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show and edit the undo/redo history of a session",
}

var historyShowCmd = &cobra.Command{
	Use:   "show <session-id>",
	Short: "Print the history of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		studio, closeStudio, _, err := openStudio(cmd, true, nil)
		if err != nil {
			return err
		}
		defer closeStudio()

		h, err := studio.History(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(h)
		}

		render := tui.NewRenderer(tui.IsTerminal(os.Stdout))
		text, err := render(tui.HistoryMarkdown(args[0], h))
		if err != nil {
			return err
		}
		fmt.Fprint(out, text)
		return nil
	},
}

var historyRecordCmd = &cobra.Command{
	Use:   "record <session-id> <kind>",
	Short: "Record an edit action",
	Long: `Records an edit action and discards every undone action.

Kinds: smooth, subdivide, boolean, create-bone, auto-skin, simplify, retopo.
Boolean actions need --mode union|difference|intersect.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		action, err := actionFromFlags(cmd, args[1])
		if err != nil {
			return err
		}

		studio, closeStudio, _, err := openStudio(cmd, true, nil)
		if err != nil {
			return err
		}
		defer closeStudio()

		if _, err := studio.Open(cmd.Context(), args[0]); err != nil {
			return err
		}
		h, err := studio.Record(cmd.Context(), args[0], action)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s (%d applied)\n", action.Kind, len(h.Past))
		return nil
	},
}

func actionFromFlags(cmd *cobra.Command, rawKind string) (domain.Action, error) {
	kind, err := domain.ParseActionKind(rawKind)
	if err != nil {
		return domain.Action{}, err
	}
	if kind == domain.ActionBoolean {
		mode, _ := cmd.Flags().GetString("mode")
		return domain.Boolean(domain.BooleanMode(mode))
	}

	sets, _ := cmd.Flags().GetStringArray("set")
	var meta map[string]any
	for _, kv := range sets {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return domain.Action{}, fmt.Errorf("invalid --set %q, expected key=value", kv)
		}
		if meta == nil {
			meta = make(map[string]any)
		}
		meta[k] = v
	}
	return domain.NewAction(kind, meta), nil
}

var historyUndoCmd = &cobra.Command{
	Use:   "undo <session-id>",
	Short: "Undo the most recent action",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStep(cmd, args[0], (*atelier.Studio).Undo, "Undid", "Nothing to undo")
	},
}

var historyRedoCmd = &cobra.Command{
	Use:   "redo <session-id>",
	Short: "Redo the most recently undone action",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStep(cmd, args[0], (*atelier.Studio).Redo, "Redid", "Nothing to redo")
	},
}

type stepFunc func(*atelier.Studio, context.Context, string) (atelier.Step, error)

func runStep(cmd *cobra.Command, sessionID string, step stepFunc, done, noop string) error {
	studio, closeStudio, _, err := openStudio(cmd, true, nil)
	if err != nil {
		return err
	}
	defer closeStudio()

	res, err := step(studio, cmd.Context(), sessionID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if res.Action == nil {
		fmt.Fprintln(out, noop)
		return nil
	}
	fmt.Fprintf(out, "%s %s (%d applied, %d undone)\n", done, res.Action.Kind, len(res.History.Past), len(res.History.Future))
	return nil
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyRecordCmd)
	historyCmd.AddCommand(historyUndoCmd)
	historyCmd.AddCommand(historyRedoCmd)

	historyShowCmd.Flags().Bool("json", false, "Print the history as JSON")
	historyRecordCmd.Flags().String("mode", "", "Boolean mode: union, difference or intersect")
	historyRecordCmd.Flags().StringArray("set", nil, "Metadata as key=value (repeatable)")
}
