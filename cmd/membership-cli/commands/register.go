package commands

import (
	"errors"
	"log/slog"
	"membership-workflow/cmd/membership-cli/globals"
	"membership-workflow/internal/membershipapi"
	"membership-workflow/internal/registration"
	"membership-workflow/lib/util/serviceutil"
	"strings"

	"github.com/spf13/cobra"
)

var registerFlags struct {
	epic        string
	document    string
	photo       string
	details     registration.MemberDetails
	payment     string
	out         string
	interactive bool
}

func init() {
	flags := registerCmd.Flags()
	flags.StringVar(&registerFlags.epic, "epic", "", "The EPIC number printed on the voter id.")
	flags.StringVar(&registerFlags.document, "document", "", "The voter id proof (JPG, PNG or PDF).")
	flags.StringVar(&registerFlags.photo, "photo", "", "The member's photo (JPG or PNG).")
	flags.StringVar(&registerFlags.details.FullName, "name", "", "Full name.")
	flags.StringVar(&registerFlags.details.Profession, "profession", "", "Profession.")
	flags.StringVar(&registerFlags.details.Designation, "designation", "", "Designation, optional.")
	flags.StringVar(&registerFlags.details.Mandal, "mandal", "", "Mandal.")
	flags.StringVar(&registerFlags.details.Dob, "dob", "", "Date of birth (YYYY-MM-DD).")
	flags.StringVar(
		&registerFlags.details.BloodGroup, "blood-group", "",
		"One of "+strings.Join(registration.BloodGroups, ", ")+", optional.",
	)
	flags.StringVar(&registerFlags.details.Contact, "contact", "", "10 digit contact number.")
	flags.StringVar(&registerFlags.details.Address, "address", "", "Postal address.")
	flags.StringVar(&registerFlags.payment, "payment", string(membershipapi.PaymentCompleted), "The simulated payment outcome (completed or failed).")
	flags.StringVar(&registerFlags.out, "out", "card.png", "Where the membership card is saved.")
	flags.BoolVarP(&registerFlags.interactive, "interactive", "i", false, "Prompts for required member fields that were not given as flags.")
	registerCmd.MarkFlagRequired("epic")

	rootCmd.AddCommand(registerCmd)
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Runs a full registration: verifies the voter id, submits the member's details, pays and issues the card.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		g := globals.Get(ctx)

		policy, err := g.Config.Policy()
		if err != nil {
			serviceutil.Fatal("invalid workflow mode", err)
		}

		opts := registration.Options{Policy: policy}
		store, db, err := openJournal(ctx, g)
		switch {
		case err == nil:
			defer db.Close()
			opts.Journal = store
		case errors.Is(err, errJournalDisabled):
		default:
			serviceutil.Fatal("failed to open journal", err)
		}

		controller := registration.NewController(g.Client, g.Tel, opts)
		slog.Info("starting registration", "mode", policy.String())

		err = controller.InputEpic(registerFlags.epic)
		if err != nil {
			serviceutil.Fatal("invalid EPIC number", err)
		}
		if registerFlags.document != "" {
			err = controller.UploadDocument(mustOpenFile(registerFlags.document))
			if err != nil {
				serviceutil.Fatal("invalid document", err)
			}
		}
		err = controller.VerifyDocument(ctx)
		if err != nil {
			serviceutil.Fatal("document verification failed", err)
		}
		slog.Info("document verified", "epic", controller.EpicNumber())

		if registerFlags.photo != "" {
			err = controller.UploadPhoto(mustOpenFile(registerFlags.photo))
			if err != nil {
				serviceutil.Fatal("invalid photo", err)
			}
		}
		if bg := registerFlags.details.BloodGroup; bg != "" && !registration.IsKnownBloodGroup(bg) {
			slog.Warn("unknown blood group, sending it as is", "blood_group", bg)
		}
		details := registerFlags.details
		if registerFlags.interactive {
			details, err = promptMissing(details)
			if err != nil {
				serviceutil.Fatal("failed to read member details", err)
			}
		}
		err = controller.SubmitDetails(ctx, details)
		if err != nil {
			serviceutil.Fatal("submitting details failed", err)
		}
		member, _ := controller.Member()
		slog.Info("member created", "member_id", member.MemberId, "membership_no", member.MembershipNo)

		if submitted, ok := controller.State().(registration.DetailsSubmitted); ok && !submitted.PaymentWaived {
			err = controller.SimulatePayment(ctx, membershipapi.PaymentStatus(registerFlags.payment))
			if errors.Is(err, registration.ErrPaymentFailed) {
				printReceipt(controller.View())
				serviceutil.Fatal("payment failed, rerun with --payment completed to retry", nil)
			}
			if err != nil {
				serviceutil.Fatal("payment update failed", err)
			}
		}

		card, ok := controller.Card()
		if !ok {
			card, err = controller.GenerateCard(ctx)
			if err != nil {
				serviceutil.Fatal("card generation failed", err)
			}
		}

		view := controller.View()
		if view.Notice != "" {
			slog.Info(view.Notice)
		}
		printReceipt(view)
		cmd.SilenceUsage = true
		return saveCard(ctx, g.Client, card, registerFlags.out)
	},
}
