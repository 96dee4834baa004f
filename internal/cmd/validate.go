package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/batonhq/baton/internal/score"
)

var validateCmd = &cobra.Command{
	Use:   "validate <piece.yaml>",
	Short: "Validate a piece definition without running it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		piece, err := score.Load(args[0])
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "piece %q is valid: %d movement(s), entry %q\n",
			piece.Name, piece.MovementCount(), piece.EntryMovement().Name)

		for i := range piece.Movements {
			m := &piece.Movements[i]
			kind := "single call"
			if m.HasTeamLeader() {
				kind = fmt.Sprintf("team lead (max %d subtasks)", m.TeamLeader.MaxSubtasks)
			}
			fmt.Fprintf(os.Stdout, "  %-20s %-28s %d rule(s)\n", m.Name, kind, len(m.Rules))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
