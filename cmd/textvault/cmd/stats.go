package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show message database statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openArchive(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		stats, err := a.engine.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("get stats: %w", err)
		}
		if statsJSON {
			return writeJSONTo(os.Stdout, stats)
		}

		loc, _ := cfg.Location()
		fmt.Printf("Database: %s\n", a.chat.Source())
		if a.chat.IsCopy() {
			fmt.Printf("  (read from a temporary copy)\n")
		}
		fmt.Printf("  Messages:      %d (%d sent by me)\n", stats.Messages, stats.FromMe)
		fmt.Printf("  Conversations: %d\n", stats.Conversations)
		fmt.Printf("  Handles:       %d\n", stats.Handles)
		fmt.Printf("  Attachments:   %d\n", stats.Attachments)
		fmt.Printf("  First message: %s\n", formatDate(stats.FirstMessage, loc))
		fmt.Printf("  Last message:  %s\n", formatDate(stats.LastMessage, loc))
		if a.book != nil {
			fmt.Printf("Contacts: %s\n", a.book.Summary())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output JSON")
}
