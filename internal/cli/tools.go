package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shawHuaZe/SingMaster/internal/app/grading"
	"github.com/shawHuaZe/SingMaster/internal/app/pitch"
	"github.com/shawHuaZe/SingMaster/internal/content"
	"github.com/shawHuaZe/SingMaster/internal/domain"
)

func init() {
	gradeCmd.Flags().StringVar(&gradeLevel, "level", "", "Level id to rate stars against")
	rootCmd.AddCommand(noteCmd, freqCmd, centsCmd, gradeCmd)
}

var gradeLevel string

// ─── Pitch Tools ────────────────────────────────────────────────────────────

var noteCmd = &cobra.Command{
	Use:   "note <hz>",
	Short: "Name the nearest note for a frequency",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hz, err := parseFloatArg("frequency", args[0])
		if err != nil {
			return err
		}
		sample := pitch.BuildPitchSample(hz, 1)
		if sample.Frequency == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("silence"))
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n",
			valueStyle.Render(fmt.Sprintf("%s%d", sample.Note, sample.Octave)),
			labelStyle.Render(fmt.Sprintf("(%+.1f cents)", sample.Cents)))
		return nil
	},
}

var freqCmd = &cobra.Command{
	Use:   "freq <note> <octave>",
	Short: "Print the equal-tempered frequency of a note",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if pitch.NoteIndex(args[0]) < 0 {
			return fmt.Errorf("%w: unknown note name %q", domain.ErrInvalidArgument, args[0])
		}
		octave, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("%w: octave must be an integer", domain.ErrInvalidArgument)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Hz\n",
			valueStyle.Render(fmt.Sprintf("%.2f", pitch.NoteToFrequency(args[0], octave))))
		return nil
	},
}

var centsCmd = &cobra.Command{
	Use:   "cents <hz> <target-hz>",
	Short: "Print the deviation of a frequency from a target in cents",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		hz, err := parseFloatArg("frequency", args[0])
		if err != nil {
			return err
		}
		target, err := parseFloatArg("target", args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s cents\n",
			valueStyle.Render(fmt.Sprintf("%+.1f", pitch.CentsDeviation(hz, target))))
		return nil
	},
}

// ─── Grading ────────────────────────────────────────────────────────────────

var gradeCmd = &cobra.Command{
	Use:   "grade <score>",
	Short: "Show the grade, message and XP for a score",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		score, err := strconv.Atoi(args[0])
		if err != nil || !grading.Valid(score) {
			return domain.ErrScoreRange
		}
		g := grading.LetterGrade(score)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s  %s\n", gradeBadge(g), grading.Message(g))
		fmt.Fprintln(out, row("XP", fmt.Sprintf("+%d", grading.XPForScore(score))))

		if gradeLevel != "" {
			lv, _, err := content.Default().Level(gradeLevel)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, row("Stars", starString(grading.StarRating(score, lv.Target))))
		}
		return nil
	},
}

func parseFloatArg(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", domain.ErrInvalidArgument, name)
	}
	return v, nil
}
