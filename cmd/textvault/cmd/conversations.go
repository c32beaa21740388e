package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/wesm/textvault/internal/query"
)

var (
	conversationsLimit int
	conversationsJSON  bool
)

var conversationsCmd = &cobra.Command{
	Use:     "conversations",
	Aliases: []string{"chats"},
	Short:   "List conversations, most recent first",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openArchive(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		convs, err := a.engine.ListConversations(cmd.Context(), conversationsLimit)
		if err != nil {
			return fmt.Errorf("list conversations: %w", err)
		}
		if conversationsJSON {
			if convs == nil {
				convs = []query.Conversation{}
			}
			return writeJSONTo(os.Stdout, convs)
		}
		if len(convs) == 0 {
			fmt.Println("No conversations found.")
			return nil
		}

		loc, _ := cfg.Location()
		writeConversationTable(convs, loc)
		return nil
	},
}

func writeConversationTable(convs []query.Conversation, loc *time.Location) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tNAME\tLAST\tMESSAGE")
	fmt.Fprintln(w, "──\t────\t────\t────\t───────")
	for _, c := range convs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			c.ID,
			c.Kind,
			truncate(derefOr(c.Name, "(unnamed)"), 30),
			formatDate(c.LastMessageDate, loc),
			truncate(singleLine(derefOr(c.LastMessage, "")), 50),
		)
	}
	w.Flush()
}

func init() {
	rootCmd.AddCommand(conversationsCmd)
	conversationsCmd.Flags().IntVar(&conversationsLimit, "limit", query.DefaultConversationLimit, "maximum conversations to list")
	conversationsCmd.Flags().BoolVar(&conversationsJSON, "json", false, "output JSON")
}
