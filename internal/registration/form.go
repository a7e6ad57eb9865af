package registration

import (
	"maps"

	"github.com/dustin/go-humanize"
)

type ButtonId string

const (
	ButtonProceed        ButtonId = "proceedBtn"
	ButtonSubmit         ButtonId = "submitBtn"
	ButtonPaymentSuccess ButtonId = "simulatePaymentSuccess"
	ButtonPaymentFailure ButtonId = "simulatePaymentFailure"
	ButtonGenerateCard   ButtonId = "generateCardBtn"
)

var Buttons = []ButtonId{
	ButtonProceed,
	ButtonSubmit,
	ButtonPaymentSuccess,
	ButtonPaymentFailure,
	ButtonGenerateCard,
}

const (
	PreviewUpload = "uploadPreview"
	PreviewPhoto  = "photoPreview"
)

const labelIncomplete = "Complete required fields"

type Button struct {
	Enabled bool
	Label   string
}

type EpicField struct {
	Value  string
	Locked bool
}

// Preview describes a held upload. Image previews render the file itself,
// the rest render the summary.
type Preview struct {
	Name  string
	Type  string
	Size  string
	Image bool
}

func previewOf(file File) Preview {
	return Preview{
		Name:  file.Name,
		Type:  file.Type,
		Size:  humanize.Bytes(uint64(file.Size)),
		Image: file.IsImage(),
	}
}

type Receipt struct {
	MemberId     int64
	MembershipNo string
	EpicNumber   string
	Status       ReceiptStatus
	Fabricated   bool
}

// Form is everything a front end needs to render the registration page.
type Form struct {
	Epic          EpicField
	DocumentInput string
	PhotoInput    string
	Previews      map[string]Preview
	Errors        map[Region]string
	Buttons       map[ButtonId]Button

	MemberFormEnabled bool
	// Member keeps the last submitted member form values.
	Member           MemberDetails
	FinalEpicDisplay string
	Receipt          *Receipt
	DownloadUrl      string
	// Notice is the last success notification.
	Notice string
}

func newForm() Form {
	form := Form{
		Previews: map[string]Preview{},
		Errors:   map[Region]string{},
		Buttons:  map[ButtonId]Button{},
	}
	for _, id := range Buttons {
		form.Buttons[id] = Button{Label: labelIncomplete}
	}
	return form
}

func (f Form) clone() Form {
	out := f
	out.Previews = maps.Clone(f.Previews)
	out.Errors = maps.Clone(f.Errors)
	out.Buttons = maps.Clone(f.Buttons)
	if f.Receipt != nil {
		receipt := *f.Receipt
		out.Receipt = &receipt
	}
	return out
}

func (f Form) Error(region Region) string {
	return f.Errors[region]
}

func (f Form) Button(id ButtonId) Button {
	return f.Buttons[id]
}
