package commands

import (
	"fmt"
	"membership-workflow/internal/registration"
	"strings"

	"github.com/tcnksm/go-input"
)

// promptMissing asks on the terminal for every required member field that
// was not given as a flag.
func promptMissing(details registration.MemberDetails) (registration.MemberDetails, error) {
	missing := details.Missing()
	if len(missing) == 0 {
		return details, nil
	}

	ui := input.DefaultUI()
	opts := &input.Options{
		Required:  true,
		Loop:      true,
		HideOrder: true,
	}
	form := details.Form()
	for _, field := range missing {
		value, err := ui.Ask(fmt.Sprintf("%s:", registration.FieldLabel(field)), opts)
		if err != nil {
			return details, fmt.Errorf("ask %s: %w", field, err)
		}
		form[field] = strings.TrimSpace(value)
	}
	return registration.MemberDetailsFromForm(form), nil
}
