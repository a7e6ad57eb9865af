package commands

import (
	"membership-workflow/cmd/membership-cli/globals"
	"membership-workflow/cmd/membership-cli/utils"
	"membership-workflow/internal/membershipapi"
	"membership-workflow/lib/util/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var seedRequest membershipapi.SeedMemberRequest

func init() {
	flags := seedCmd.Flags()
	flags.StringVar(&seedRequest.Name, "name", "", "Full name.")
	flags.StringVar(&seedRequest.ContactNo, "contact", "", "Contact number.")
	flags.StringVar(&seedRequest.MembershipNo, "membership-no", "", "Membership number, the backend assigns one if empty.")
	flags.StringVar(&seedRequest.Profession, "profession", "", "Profession.")
	flags.StringVar(&seedRequest.Designation, "designation", "", "Designation.")
	flags.StringVar(&seedRequest.Mandal, "mandal", "", "Mandal.")
	flags.StringVar(&seedRequest.Dob, "dob", "", "Date of birth (YYYY-MM-DD).")
	flags.StringVar(&seedRequest.BloodGroup, "blood-group", "", "Blood group.")
	flags.StringVar(&seedRequest.Address, "address", "", "Postal address.")
	flags.StringVar(&seedRequest.PhotoPath, "photo-path", "", "Path of the photo on the backend host.")
	flags.StringVar(&seedRequest.PdfProofPath, "proof-path", "", "Path of the voter id proof on the backend host.")
	seedCmd.MarkFlagRequired("name")
	seedCmd.MarkFlagRequired("contact")

	rootCmd.AddCommand(seedCmd)
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Inserts a member directly into the backend's store, skipping verification.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		g := globals.Get(ctx)

		res, err := g.Client.SeedMember(ctx, seedRequest)
		if err != nil {
			serviceutil.Fatal("failed to seed member", err)
		}

		t := utils.NewTable()
		t.AppendHeader(table.Row{"Member ID", "Membership No", "Message"})
		t.AppendRow(table.Row{res.Id, res.MembershipNo, res.Message})
		t.Render()
	},
}
