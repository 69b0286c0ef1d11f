package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shawHuaZe/SingMaster/internal/app/grading"
	"github.com/shawHuaZe/SingMaster/internal/domain"
)

func init() {
	resetCmd.Flags().BoolVar(&resetYes, "yes", false, "Skip the confirmation check")
	rootCmd.AddCommand(completeCmd, streakCmd, practiceCmd, resetCmd)
}

var resetYes bool

var completeCmd = &cobra.Command{
	Use:   "complete <level-id> <score>",
	Short: "Record a scored lesson",
	Args:  cobra.ExactArgs(2),
	RunE:  runComplete,
}

func runComplete(cmd *cobra.Command, args []string) error {
	score, err := strconv.Atoi(args[1])
	if err != nil {
		return domain.ErrScoreRange
	}

	d, userID, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	c, err := d.Sessions.CompleteLesson(context.Background(), userID, args[0], score)
	if err != nil && !errors.Is(err, domain.ErrStoreUnavailable) {
		return err
	}

	out := cmd.OutOrStdout()
	g := grading.LetterGrade(score)
	fmt.Fprintf(out, "%s  %s  %s\n", gradeBadge(g), starString(c.Stars), grading.Message(g))
	fmt.Fprintln(out, row("XP", fmt.Sprintf("+%d (level %d)", c.XP, c.UserLevel)))
	fmt.Fprintln(out, row("Streak", fmt.Sprintf("%d days", c.StreakDays)))
	if c.LeveledUp {
		fmt.Fprintln(out, okStyle.Render(fmt.Sprintf("Level up! You reached level %d.", c.UserLevel)))
	}
	if c.Unlocked != "" {
		fmt.Fprintln(out, okStyle.Render("Unlocked "+c.Unlocked))
	}
	for _, a := range c.NewAchievements {
		fmt.Fprintf(out, "%s %s\n", a.Icon, okStyle.Render("Achievement: "+a.Title))
	}
	// Progress was applied but not saved
	return err
}

var streakCmd = &cobra.Command{
	Use:   "streak",
	Short: "Mark today as practiced",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, userID, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		days, err := d.Sessions.UpdateStreak(context.Background(), userID)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), row("Streak", fmt.Sprintf("%d days 🔥", days)))
		return nil
	},
}

var practiceCmd = &cobra.Command{
	Use:   "practice <seconds>",
	Short: "Credit extra practice time",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		seconds, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("%w: seconds must be an integer", domain.ErrInvalidArgument)
		}

		d, userID, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		ctx := context.Background()
		if err := d.Sessions.AddPracticeTime(ctx, userID, seconds); err != nil {
			return err
		}
		ov, err := d.Sessions.Progress(ctx, userID)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), row("Practice", formatDuration(ov.Progress.TotalPracticeSeconds)))
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Erase all progress for the user",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetYes {
			return fmt.Errorf("%w: reset erases all progress, pass --yes to confirm", domain.ErrInvalidArgument)
		}

		d, userID, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		if err := d.Sessions.Reset(context.Background(), userID); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("Progress reset for "+userID))
		return nil
	},
}
