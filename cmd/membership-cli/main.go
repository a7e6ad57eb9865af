package main

import (
	"membership-workflow/cmd/membership-cli/commands"
	"membership-workflow/lib/util/serviceutil"

	"github.com/joho/godotenv"
)

func main() {
	// a .env next to the binary may carry MEMBERSHIP_* overrides
	_ = godotenv.Load()
	commands.ExecuteContext(serviceutil.SignalContext())
}
