package commands

import (
	"log/slog"
	"membership-workflow/cmd/membership-cli/globals"
	"membership-workflow/internal/membershipapi"
	"membership-workflow/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

var paymentFlags struct {
	memberId int64
	status   string
}

func init() {
	paymentCmd.Flags().Int64Var(&paymentFlags.memberId, "member-id", 0, "The member whose payment is updated.")
	paymentCmd.Flags().StringVar(&paymentFlags.status, "status", string(membershipapi.PaymentCompleted), "completed or failed.")
	paymentCmd.MarkFlagRequired("member-id")
	rootCmd.AddCommand(paymentCmd)
}

var paymentCmd = &cobra.Command{
	Use:   "payment",
	Short: "Records a simulated payment outcome for an existing member.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		g := globals.Get(ctx)
		requireMemberId(paymentFlags.memberId)

		status := membershipapi.PaymentStatus(paymentFlags.status)
		if status != membershipapi.PaymentCompleted && status != membershipapi.PaymentFailed {
			serviceutil.Fatal("--status must be completed or failed", nil)
		}

		res, err := g.Client.UpdatePayment(ctx, paymentFlags.memberId, status)
		if err != nil {
			serviceutil.Fatal("failed to update payment", err)
		}
		slog.Info(res.Message, "member_id", paymentFlags.memberId, "status", status)
	},
}
