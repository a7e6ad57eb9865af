package commands

import (
	"fmt"
	"membership-workflow/cmd/membership-cli/globals"
	"membership-workflow/internal/registration"
	"membership-workflow/lib/util/serviceutil"

	"github.com/spf13/cobra"
)

var verifyFlags struct {
	epic     string
	document string
}

func init() {
	verifyCmd.Flags().StringVar(&verifyFlags.epic, "epic", "", "The EPIC number printed on the voter id.")
	verifyCmd.Flags().StringVar(&verifyFlags.document, "document", "", "The voter id proof (JPG, PNG or PDF).")
	verifyCmd.MarkFlagRequired("epic")
	rootCmd.AddCommand(verifyCmd)
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verifies a voter id proof against an EPIC number and prints the verification token.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		g := globals.Get(ctx)

		policy, err := g.Config.Policy()
		if err != nil {
			serviceutil.Fatal("invalid workflow mode", err)
		}
		controller := registration.NewController(g.Client, g.Tel, registration.Options{Policy: policy})

		err = controller.InputEpic(verifyFlags.epic)
		if err != nil {
			serviceutil.Fatal("invalid EPIC number", err)
		}
		if verifyFlags.document != "" {
			err = controller.UploadDocument(mustOpenFile(verifyFlags.document))
			if err != nil {
				serviceutil.Fatal("invalid document", err)
			}
		}
		err = controller.VerifyDocument(ctx)
		if err != nil {
			serviceutil.Fatal("document verification failed", err)
		}
		fmt.Println(controller.VerificationToken())
	},
}
