package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shawHuaZe/SingMaster/internal/content"
)

func init() {
	contentCmd.AddCommand(contentIslandsCmd, contentValidateCmd)
	rootCmd.AddCommand(contentCmd)
}

var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Inspect curriculum content",
}

var contentIslandsCmd = &cobra.Command{
	Use:   "islands",
	Short: "List the islands of the built-in curriculum",
	RunE: func(cmd *cobra.Command, args []string) error {
		cur := content.Default()
		for _, is := range cur.Islands() {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n",
				is.Icon, valueStyle.Render(is.Name),
				mutedStyle.Render(fmt.Sprintf("(%d chapters)", is.ChapterCount)))
		}
		return nil
	},
}

var contentValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a curriculum file for errors",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cur, err := content.LoadFile(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %d islands, %d chapters, %d levels\n",
			okStyle.Render("ok"), len(cur.Islands()), len(cur.Chapters), cur.LevelCount())
		return nil
	},
}
