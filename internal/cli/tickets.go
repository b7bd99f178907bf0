package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"supportagent/internal/domain"
	"supportagent/internal/usecase"
)

var (
	ticketsCustomer string
	ticketsOpenOnly bool
	ticketsJSON     bool
)

var ticketsCmd = &cobra.Command{
	Use:   "tickets",
	Short: "Inspect support tickets",
}

var ticketsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tickets",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		c, err := openContainer(ctx, false)
		if err != nil {
			return err
		}
		defer c.Close()

		var tickets []domain.Ticket
		switch {
		case ticketsCustomer != "":
			tickets, err = c.Tickets.ListByCustomer(ctx, ticketsCustomer)
		case ticketsOpenOnly:
			tickets, err = c.Tickets.ListOpen(ctx)
		default:
			tickets, err = c.Tickets.List(ctx)
		}
		if err != nil {
			return err
		}

		if ticketsJSON {
			output, _ := json.MarshalIndent(tickets, "", "  ")
			fmt.Println(string(output))
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATUS\tPRIORITY\tCUSTOMER\tTITLE")
		for _, t := range tickets {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Status, t.Priority, t.Customer, t.Title)
		}
		return w.Flush()
	},
}

var ticketsShowCmd = &cobra.Command{
	Use:   "show <ticket-id>",
	Short: "Show one ticket",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		c, err := openContainer(ctx, false)
		if err != nil {
			return err
		}
		defer c.Close()

		t, err := c.Tickets.Get(ctx, args[0])
		if err != nil {
			return err
		}
		if t == nil {
			return fmt.Errorf("ticket %s: %w", args[0], domain.ErrNotFound)
		}

		fmt.Println(usecase.FormatTicketSummary(t))
		for _, n := range t.Notes {
			fmt.Printf("Note (%s): %s\n", n.Timestamp.Format("2006-01-02 15:04"), n.Text)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ticketsCmd)
	ticketsCmd.AddCommand(ticketsListCmd, ticketsShowCmd)
	ticketsListCmd.Flags().StringVar(&ticketsCustomer, "customer", "", "only tickets of this customer")
	ticketsListCmd.Flags().BoolVar(&ticketsOpenOnly, "open", false, "only open tickets")
	ticketsListCmd.Flags().BoolVar(&ticketsJSON, "json", false, "output as JSON")
}
