package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wesm/textvault/internal/query"
)

var (
	messagesLimit int
	messagesJSON  bool
)

var messagesCmd = &cobra.Command{
	Use:   "messages <conversation-id>",
	Short: "Show a conversation, oldest message first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id < 0 {
			return fmt.Errorf("invalid conversation ID %q: must be a non-negative integer", args[0])
		}

		a, err := openArchive(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		msgs, err := a.engine.ConversationMessages(cmd.Context(), id, messagesLimit)
		if err != nil {
			return fmt.Errorf("get messages: %w", err)
		}
		if messagesJSON {
			if msgs == nil {
				msgs = []query.Message{}
			}
			return writeJSONTo(os.Stdout, msgs)
		}
		if len(msgs) == 0 {
			fmt.Printf("No messages in conversation %d.\n", id)
			return nil
		}

		loc, _ := cfg.Location()
		writeMessageTable(os.Stdout, msgs, loc, false)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(messagesCmd)
	messagesCmd.Flags().IntVar(&messagesLimit, "limit", 0, "maximum messages to show (default 1000)")
	messagesCmd.Flags().BoolVar(&messagesJSON, "json", false, "output JSON")
}
