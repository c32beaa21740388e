package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var contactsJSON bool

var contactsCmd = &cobra.Command{
	Use:   "contacts [name]",
	Short: "List AddressBook contacts used to name senders",
	Long: `List the contacts loaded from the local AddressBook. With a name, show
only the contact that name selects in 'search --from' or FROM:.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if noContacts {
			return errors.New("contacts are disabled by --no-contacts")
		}
		a, err := openArchive(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		if a.book == nil {
			return errors.New("no address book found; set [data] address_book in config.toml")
		}

		if len(args) == 1 {
			c, ok := a.book.Find(args[0])
			if !ok {
				return fmt.Errorf("no contact named %q with a phone number or email", args[0])
			}
			if contactsJSON {
				return writeJSONTo(os.Stdout, c)
			}
			for _, p := range c.Phones {
				fmt.Printf("phone  %s\n", p)
			}
			for _, e := range c.Emails {
				fmt.Printf("email  %s\n", e)
			}
			return nil
		}

		if contactsJSON {
			return writeJSONTo(os.Stdout, a.book)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tPHONES\tEMAILS")
		fmt.Fprintln(w, "────\t──────\t──────")
		for _, c := range a.book.Contacts {
			fmt.Fprintf(w, "%s\t%s\t%s\n",
				truncate(c.Name, 30),
				truncate(strings.Join(c.Phones, ", "), 40),
				truncate(strings.Join(c.Emails, ", "), 40))
		}
		w.Flush()
		fmt.Printf("\n%s\n", a.book.Summary())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(contactsCmd)
	contactsCmd.Flags().BoolVar(&contactsJSON, "json", false, "output JSON")
}
