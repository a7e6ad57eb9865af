package commands

import (
	"membership-workflow/cmd/membership-cli/globals"
	"membership-workflow/cmd/membership-cli/utils"
	"membership-workflow/lib/util/serviceutil"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var historyLimit int

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "How many registrations to print, 0 prints all of them.")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Prints the registrations recorded in the local journal, newest first.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		g := globals.Get(ctx)

		store, db, err := openJournal(ctx, g)
		if err != nil {
			serviceutil.Fatal("failed to open journal", err)
		}
		defer db.Close()

		entries, err := store.List(ctx, historyLimit)
		if err != nil {
			serviceutil.Fatal("failed to list registrations", err)
		}

		t := utils.NewTable()
		t.AppendHeader(table.Row{"#", "When", "EPIC", "Member ID", "Membership No", "Payment", "Mode", "Card"})
		for _, e := range entries {
			card := e.CardPath
			if e.Fabricated {
				card += " (demo)"
			}
			t.AppendRow(table.Row{
				e.Id,
				humanize.RelTime(e.CreatedAt, time.Now(), "ago", "from now"),
				e.EpicNumber,
				e.MemberId,
				e.MembershipNo,
				e.PaymentStatus,
				e.Mode,
				card,
			})
		}
		t.AppendFooter(table.Row{"", "", "", "", "", "", "Total", len(entries)})
		t.Render()
	},
}
