package commands

import (
	"membership-workflow/cmd/membership-cli/globals"
	"membership-workflow/cmd/membership-cli/utils"
	"membership-workflow/internal/registration"
	"membership-workflow/lib/util/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var cardFlags struct {
	memberId int64
	out      string
}

func init() {
	cardCmd.Flags().Int64Var(&cardFlags.memberId, "member-id", 0, "The member to issue a card for, payment must be completed.")
	cardCmd.Flags().StringVar(&cardFlags.out, "out", "card.png", "Where the membership card is saved.")
	cardCmd.MarkFlagRequired("member-id")
	rootCmd.AddCommand(cardCmd)
}

var cardCmd = &cobra.Command{
	Use:   "card",
	Short: "Generates and downloads the membership card of an existing member.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		g := globals.Get(ctx)
		requireMemberId(cardFlags.memberId)

		res, err := g.Client.GenerateCard(ctx, cardFlags.memberId)
		if err != nil {
			serviceutil.Fatal("failed to generate card", err)
		}

		t := utils.NewTable()
		t.AppendRows([]table.Row{
			{"Member ID", res.MemberId},
			{"Membership No", res.MembershipNo},
			{"Card", g.Client.DownloadUrl(res.CardPath)},
		})
		t.Render()

		cmd.SilenceUsage = true
		return saveCard(ctx, g.Client, registration.CardResult{
			CardPath:    res.CardPath,
			DownloadUrl: g.Client.DownloadUrl(res.CardPath),
		}, cardFlags.out)
	},
}
