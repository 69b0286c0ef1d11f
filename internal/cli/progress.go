package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(progressCmd, chaptersCmd, achievementsCmd)
}

// ─── Progress Overview ──────────────────────────────────────────────────────

var progressCmd = &cobra.Command{
	Use:     "progress",
	Aliases: []string{"status"},
	Short:   "Show level, streak and daily goal",
	RunE:    runProgress,
}

func runProgress(cmd *cobra.Command, args []string) error {
	d, userID, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	ov, err := d.Sessions.Progress(context.Background(), userID)
	if err != nil {
		return err
	}
	p := ov.Progress

	lines := []string{
		titleStyle.Render("SingMaster") + "  " + mutedStyle.Render(userID),
		"",
		row("Level", fmt.Sprintf("%d  %s %.0f%%", ov.Level.Level, bar(ov.Level.ProgressPct), ov.Level.ProgressPct)),
		row("XP", fmt.Sprintf("%d (next in %d)", p.Experience, ov.Level.XPToNext)),
		row("Today", fmt.Sprintf("%d/%d  %s", ov.Today.Completed, ov.Today.Target, bar(ov.Today.Percentage))),
		row("Streak", fmt.Sprintf("%d days (best %d)", p.StreakDays, p.LongestStreakDays)),
		row("Practice", formatDuration(p.TotalPracticeSeconds)),
		row("Lessons", fmt.Sprintf("%d completed", len(p.CompletedLessons))),
		row("Achievements", fmt.Sprintf("%d/%d", len(p.Achievements), ov.AchievementsTotal)),
		row("Up next", fmt.Sprintf("chapter %d, level %d", ov.CurrentChapter, ov.CurrentLevel)),
	}
	fmt.Fprintln(cmd.OutOrStdout(), cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
	return nil
}

// ─── Chapters ───────────────────────────────────────────────────────────────

var chaptersCmd = &cobra.Command{
	Use:     "chapters",
	Aliases: []string{"ls"},
	Short:   "List chapters and levels with unlock state",
	RunE:    runChapters,
}

func runChapters(cmd *cobra.Command, args []string) error {
	d, userID, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	chapters, err := d.Sessions.Chapters(context.Background(), userID)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, ch := range chapters {
		fmt.Fprintf(w, "%s %s\n", ch.Icon, titleStyle.Render(ch.Title))
		fmt.Fprintln(w, "  LEVEL\tTITLE\tSTARS\tBEST\tSTATE")
		for _, lv := range ch.Levels {
			best := "-"
			if lv.BestScore != nil {
				best = fmt.Sprintf("%d", *lv.BestScore)
			}
			state := mutedStyle.Render("locked")
			switch {
			case lv.IsCompleted:
				state = okStyle.Render("done")
			case lv.IsUnlocked:
				state = valueStyle.Render("open")
			}
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\n", lv.ID, lv.Title, starString(lv.Stars), best, state)
		}
	}
	return w.Flush()
}

// ─── Achievements ───────────────────────────────────────────────────────────

var achievementsCmd = &cobra.Command{
	Use:   "achievements",
	Short: "Show progress toward every achievement",
	RunE:  runAchievements,
}

func runAchievements(cmd *cobra.Command, args []string) error {
	d, userID, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	list, err := d.Sessions.Achievements(context.Background(), userID)
	if err != nil {
		return err
	}

	var b strings.Builder
	for _, a := range list {
		current := a.Current
		if current > a.Target {
			current = a.Target
		}
		pct := 0.0
		if a.Target > 0 {
			pct = float64(current) / float64(a.Target) * 100
		}
		name := labelStyle.Render(a.Title)
		if a.Unlocked {
			name = okStyle.Render(a.Title)
		}
		fmt.Fprintf(&b, "%s %-22s %s %d/%d\n", a.Icon, name, bar(pct), current, a.Target)
	}
	fmt.Fprint(cmd.OutOrStdout(), b.String())
	return nil
}
