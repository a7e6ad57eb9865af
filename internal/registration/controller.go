package registration

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"membership-workflow/internal/chrono"
	"membership-workflow/internal/journal"
	"membership-workflow/internal/membershipapi"
	"membership-workflow/internal/telemetry"
	"sync"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	report_controller_verify_document  = "controller.verify-document"
	report_controller_submit_details   = "controller.submit-details"
	report_controller_simulate_payment = "controller.simulate-payment"
	report_controller_generate_card    = "controller.generate-card"
	report_controller_journal          = "controller.journal"
)

var tracer = otel.Tracer("membership-workflow/internal/registration")
var meter = otel.Meter("membership-workflow/internal/registration")

var stepCounter, _ = meter.Int64Counter("registration.steps")

// DemoCardPath is the placeholder artifact used when card generation fails
// under FailFabricate.
const DemoCardPath = "demo_card.png"

const (
	demoPhotoPath = "demo/photo.jpg"
	demoProofPath = "demo/proof.pdf"
)

// API is the part of the membership backend the workflow drives.
type API interface {
	VerifyDocument(ctx context.Context, epicNumber string, document membershipapi.FilePart) (membershipapi.VerifyDocumentResponse, error)
	SubmitDetails(ctx context.Context, req membershipapi.SubmitDetailsRequest) (membershipapi.SubmitDetailsResponse, error)
	UpdatePayment(ctx context.Context, memberId int64, status membershipapi.PaymentStatus) (membershipapi.UpdatePaymentResponse, error)
	GenerateCard(ctx context.Context, memberId int64) (membershipapi.GenerateCardResponse, error)
	SeedMember(ctx context.Context, req membershipapi.SeedMemberRequest) (membershipapi.SeedMemberResponse, error)
	DownloadUrl(cardPath string) string
}

// Journal receives every workflow that issued a card.
type Journal interface {
	Record(ctx context.Context, entry journal.Entry) (journal.Entry, error)
}

type Options struct {
	Policy Policy
	// Time defaults to chrono.StandardTime.
	Time chrono.TimeAPI
	// Journal is optional.
	Journal Journal
}

// Controller owns one registration workflow. Handlers may be called from
// any goroutine, the lock is released while a remote call is in flight so
// View() keeps answering.
type Controller struct {
	api     API
	tel     telemetry.API
	time    chrono.TimeAPI
	policy  Policy
	journal Journal

	lock       sync.Mutex
	state      State
	document   *File
	photo      *File
	form       Form
	inflight   string
	busyButton ButtonId
	busyLabel  string
}

func NewController(api API, tel telemetry.API, opts Options) *Controller {
	if opts.Time == nil {
		opts.Time = chrono.NewStandardTime()
	}
	c := &Controller{
		api:     api,
		tel:     telemetry.NewScopedAPI("registration", tel),
		time:    opts.Time,
		policy:  opts.Policy,
		journal: opts.Journal,
		state:   Idle{},
		form:    newForm(),
	}
	c.refresh()
	return c
}

func (c *Controller) Policy() Policy {
	return c.policy
}

// View returns a copy of the form that is safe to keep.
func (c *Controller) View() Form {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.form.clone()
}

func (c *Controller) State() State {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.state
}

func (c *Controller) VerificationToken() string {
	c.lock.Lock()
	defer c.lock.Unlock()
	return tokenOf(c.state)
}

func (c *Controller) EpicNumber() string {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.form.Epic.Value
}

func (c *Controller) IsEpicLocked() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.form.Epic.Locked
}

func (c *Controller) CurrentStep() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.state.Step()
}

// Member returns the member record once details were submitted.
func (c *Controller) Member() (MemberRecord, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	return memberOf(c.state)
}

// Card returns the generated card once there is one.
func (c *Controller) Card() (CardResult, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	s, ok := c.state.(CardGenerated)
	return s.Card, ok
}

// apply moves the workflow along, the lock must be held.
func (c *Controller) apply(event Event) error {
	next, err := Transition(c.state, event)
	if err != nil {
		return err
	}
	c.state = next
	c.refresh()
	return nil
}

// begin marks a remote call as in flight, the lock must be held.
func (c *Controller) begin(operation string, button ButtonId, label string) {
	c.inflight = operation
	c.busyButton = button
	c.busyLabel = label
	c.refresh()
}

// end clears the in flight marker, the lock must be held.
func (c *Controller) end() {
	c.inflight = ""
	c.busyButton = ""
	c.busyLabel = ""
	c.refresh()
}

func (c *Controller) setError(region Region, message string) {
	c.form.Errors[region] = message
}

func (c *Controller) clearError(region Region) {
	delete(c.form.Errors, region)
}

// fail renders a validation error into its region and returns it.
func (c *Controller) fail(err *ValidationError) error {
	c.setError(err.Region, err.Message)
	return err
}

// refresh derives every button and the receipt from the current state, the
// lock must be held.
func (c *Controller) refresh() {
	enabled := map[ButtonId]string{}

	switch s := c.state.(type) {
	case Idle, EpicEntered:
		if c.policy.AcceptsEpic(c.form.Epic.Value) && (c.document != nil || !c.policy.requiresDocument()) {
			label := "Verify Document"
			if c.policy.Verification == VerifyBypass {
				label = "Verify Document (Demo)"
			}
			enabled[ButtonProceed] = label
		}
	case DocumentVerified:
		enabled[ButtonSubmit] = "Submit Details"
	case DetailsSubmitted:
		if s.PaymentWaived {
			enabled[ButtonGenerateCard] = "Generate Membership Card"
		} else {
			enabled[ButtonPaymentSuccess] = "Simulate Payment Success"
			enabled[ButtonPaymentFailure] = "Simulate Payment Failure"
		}
	case PaymentCompleted, CardGenerated:
		enabled[ButtonGenerateCard] = "Generate Membership Card"
	}

	for _, id := range Buttons {
		label, ok := enabled[id]
		switch {
		case id == c.busyButton:
			c.form.Buttons[id] = Button{Enabled: false, Label: c.busyLabel}
		case ok:
			c.form.Buttons[id] = Button{Enabled: true, Label: label}
		default:
			c.form.Buttons[id] = Button{Enabled: false, Label: labelIncomplete}
		}
	}

	member, ok := memberOf(c.state)
	if !ok {
		c.form.Receipt = nil
		return
	}
	c.form.Receipt = &Receipt{
		MemberId:     member.MemberId,
		MembershipNo: member.MembershipNo,
		EpicNumber:   epicOf(c.state),
		Status:       receiptStatusOf(c.state),
		Fabricated:   member.Fabricated,
	}
}

// observe records the outcome of an operation on its span and the step
// counter.
func (c *Controller) observe(ctx context.Context, span trace.Span, step string, err error) {
	outcome := "ok"
	var verr *ValidationError
	switch {
	case err == nil:
	case errors.Is(err, ErrBusy):
		outcome = "busy"
	case errors.As(err, &verr):
		outcome = "invalid"
	default:
		outcome = "error"
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	stepCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("step", step),
		attribute.String("outcome", outcome),
		attribute.String("mode", c.policy.String()),
	))
}

func (c *Controller) lastDigits() string {
	return chrono.MillisSuffix(c.time.Now(), 6)
}

// InputEpic normalizes and stores the EPIC typed by the user, it is ignored
// once the EPIC is locked.
func (c *Controller) InputEpic(raw string) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.inflight != "" {
		return ErrBusy
	}
	if c.form.Epic.Locked {
		return nil
	}

	value := NormalizeEpic(raw, c.policy.maxEpicLength())
	c.form.Epic.Value = value
	c.clearError(RegionEpic)

	var event Event = EventEpicEntered{Epic: value}
	if value == "" {
		event = EventEpicCleared{}
	}
	return c.apply(event)
}

// UploadDocument holds the verification document if it passes validation,
// otherwise any previously held document is dropped.
func (c *Controller) UploadDocument(file File) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.inflight != "" {
		return ErrBusy
	}

	verr := validateFile(file, RegionUpload)
	if verr != nil {
		c.document = nil
		c.form.DocumentInput = ""
		delete(c.form.Previews, PreviewUpload)
		c.refresh()
		return c.fail(verr)
	}

	c.clearError(RegionUpload)
	c.document = &file
	c.form.DocumentInput = file.Name
	c.form.Previews[PreviewUpload] = previewOf(file)
	c.refresh()
	return nil
}

// UploadPhoto holds the member photo if it is an image that passes
// validation.
func (c *Controller) UploadPhoto(file File) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.inflight != "" {
		return ErrBusy
	}

	verr := validatePhoto(file)
	if verr != nil {
		c.photo = nil
		c.form.PhotoInput = ""
		delete(c.form.Previews, PreviewPhoto)
		return c.fail(verr)
	}

	c.clearError(RegionPhoto)
	c.photo = &file
	c.form.PhotoInput = file.Name
	c.form.Previews[PreviewPhoto] = previewOf(file)
	c.form.Notice = "Photo uploaded successfully"
	return nil
}

// VerifyDocument runs step 2. Under VerifyRemote the held document is sent
// to the backend, under VerifyBypass a demo token is issued locally.
func (c *Controller) VerifyDocument(ctx context.Context) (err error) {
	ctx, span := tracer.Start(ctx, "controller:VerifyDocument")
	defer span.End()
	defer func() {
		c.observe(ctx, span, "verify", err)
	}()

	c.lock.Lock()
	if c.inflight != "" {
		c.lock.Unlock()
		return ErrBusy
	}
	if c.form.Epic.Locked {
		c.lock.Unlock()
		return fmt.Errorf("%w: document already verified", ErrInvalidTransition)
	}

	epic := c.form.Epic.Value
	if !c.policy.AcceptsEpic(epic) {
		err = c.fail(invalid(RegionEpic, c.policy.epicMessage()))
		c.lock.Unlock()
		return err
	}

	if c.policy.Verification == VerifyBypass {
		defer c.lock.Unlock()

		var suffix string
		suffix, err = random.String(12)
		if err != nil {
			c.tel.ReportBroken(report_controller_verify_document, fmt.Errorf("random token: %w", err))
			return err
		}
		return c.completeVerification(
			"demo-token-"+suffix,
			"Document verified successfully! (Demo mode - all documents accepted)",
		)
	}

	if c.document == nil {
		err = c.fail(invalid(RegionUpload, "Please upload a verification document"))
		c.lock.Unlock()
		return err
	}
	document := *c.document
	c.begin("verify", ButtonProceed, "Verifying...")
	c.lock.Unlock()

	res, err := c.verifyRemote(ctx, epic, document)

	c.lock.Lock()
	defer c.lock.Unlock()
	defer c.end()

	if err != nil {
		c.tel.ReportWarning(report_controller_verify_document, err, epic)
		c.setError(RegionUpload, remoteMessage(err, "Document verification failed"))
		return err
	}

	message := res.Message
	if message == "" {
		message = "Document verification successful!"
	}
	return c.completeVerification(res.VerificationToken, message)
}

func (c *Controller) verifyRemote(ctx context.Context, epic string, document File) (membershipapi.VerifyDocumentResponse, error) {
	reader, err := document.Open()
	if err != nil {
		return membershipapi.VerifyDocumentResponse{}, fmt.Errorf("open document: %w", err)
	}
	defer reader.Close()

	return c.api.VerifyDocument(ctx, epic, membershipapi.FilePart{
		Name:        document.Name,
		ContentType: document.Type,
		Reader:      reader,
	})
}

// completeVerification stores the token and unlocks step 3, the lock must
// be held.
func (c *Controller) completeVerification(token, message string) error {
	err := c.apply(EventDocumentVerified{Token: token})
	if err != nil {
		return err
	}
	c.clearError(RegionEpic)
	c.clearError(RegionUpload)
	c.form.Epic.Locked = true
	c.form.MemberFormEnabled = true
	c.form.FinalEpicDisplay = c.form.Epic.Value
	c.form.Notice = message
	return nil
}

// SubmitDetails runs step 3. Under VerifyBypass the member is seeded
// directly and card generation follows immediately.
func (c *Controller) SubmitDetails(ctx context.Context, details MemberDetails) (err error) {
	ctx, span := tracer.Start(ctx, "controller:SubmitDetails")
	defer span.End()
	defer func() {
		c.observe(ctx, span, "submit", err)
	}()

	c.lock.Lock()
	if c.inflight != "" {
		c.lock.Unlock()
		return ErrBusy
	}
	c.form.Member = details

	token := tokenOf(c.state)
	if token == "" {
		err = c.fail(precondition(RegionMember, "Verification token missing. Please verify your document first."))
		c.lock.Unlock()
		return err
	}
	if _, ok := c.state.(DocumentVerified); !ok {
		c.lock.Unlock()
		return fmt.Errorf("%w: details already submitted", ErrInvalidTransition)
	}
	if c.policy.requiresPhoto() && c.photo == nil {
		err = c.fail(precondition(RegionPhoto, "Please upload a photo"))
		c.lock.Unlock()
		return err
	}
	if verr := details.validate(); verr != nil {
		err = c.fail(verr)
		c.lock.Unlock()
		return err
	}
	c.clearError(RegionMember)

	var photo File
	if c.photo != nil {
		photo = *c.photo
	}
	label := "Submitting..."
	if c.policy.Verification == VerifyBypass {
		label = "Processing..."
	}
	c.begin("submit", ButtonSubmit, label)
	c.lock.Unlock()

	var member MemberRecord
	if c.policy.Verification == VerifyBypass {
		member, err = c.seedMember(ctx, details)
	} else {
		member, err = c.submitRemote(ctx, token, photo, details)
	}
	if err != nil && c.policy.Failure == FailFabricate {
		failure := err
		member = MemberRecord{
			MemberId:     rand.Int64N(1000) + 1,
			MembershipNo: "TNBSP-DEMO-" + c.lastDigits(),
			Fabricated:   true,
		}
		c.tel.ReportWarning(
			report_controller_submit_details,
			"fabricated member after failed submission",
			failure,
			member.MembershipNo,
		)
		err = nil
	}

	c.lock.Lock()
	if err != nil {
		c.tel.ReportWarning(report_controller_submit_details, err)
		c.setError(RegionMember, remoteMessage(err, "Member details submission failed"))
		c.end()
		c.lock.Unlock()
		return err
	}

	waived := c.policy.waivesPayment()
	err = c.apply(EventDetailsSubmitted{Member: member, PaymentWaived: waived})
	if err == nil {
		c.form.Notice = "Member details submitted successfully!"
		if waived {
			c.form.Notice = "Member details submitted successfully! Generating card..."
		}
	}
	c.end()
	c.lock.Unlock()

	if err != nil || !waived {
		return err
	}
	// The member exists at this point, a card failure only lands in the
	// card region and callers retry through GenerateCard.
	_, _ = c.GenerateCard(ctx)
	return nil
}

func (c *Controller) submitRemote(ctx context.Context, token string, photo File, details MemberDetails) (MemberRecord, error) {
	reader, err := photo.Open()
	if err != nil {
		return MemberRecord{}, fmt.Errorf("open photo: %w", err)
	}
	defer reader.Close()

	res, err := c.api.SubmitDetails(ctx, membershipapi.SubmitDetailsRequest{
		VerificationToken: token,
		Photo: membershipapi.FilePart{
			Name:        photo.Name,
			ContentType: photo.Type,
			Reader:      reader,
		},
		Fields: RemapFields(details.Form()),
	})
	if err != nil {
		return MemberRecord{}, err
	}
	return MemberRecord{
		MemberId:     res.MemberId,
		MembershipNo: res.MembershipNo,
	}, nil
}

func (c *Controller) seedMember(ctx context.Context, details MemberDetails) (MemberRecord, error) {
	bloodGroup := details.BloodGroup
	if bloodGroup == "" {
		bloodGroup = DefaultBloodGroup
	}
	membershipNo := "TNBSP-" + c.lastDigits()

	res, err := c.api.SeedMember(ctx, membershipapi.SeedMemberRequest{
		Name:         details.FullName,
		ContactNo:    details.Contact,
		MembershipNo: membershipNo,
		Profession:   details.Profession,
		Mandal:       details.Mandal,
		Dob:          details.Dob,
		BloodGroup:   bloodGroup,
		Address:      details.Address,
		PhotoPath:    demoPhotoPath,
		PdfProofPath: demoProofPath,
	})
	if err != nil {
		return MemberRecord{}, err
	}

	memberId := res.Id
	if memberId == 0 {
		c.tel.ReportWarning(report_controller_submit_details, "seeded member without id", membershipNo)
		memberId = 1
	}
	return MemberRecord{MemberId: memberId, MembershipNo: membershipNo}, nil
}

// ErrPaymentFailed is returned by SimulatePayment after a failed payment was
// recorded, the payment can be retried.
var ErrPaymentFailed = errors.New("payment failed")

// SimulatePayment runs step 4 by recording `status` against the member.
func (c *Controller) SimulatePayment(ctx context.Context, status membershipapi.PaymentStatus) (err error) {
	ctx, span := tracer.Start(ctx, "controller:SimulatePayment")
	defer span.End()
	defer func() {
		c.observe(ctx, span, "payment", err)
	}()

	button := ButtonPaymentSuccess
	switch status {
	case membershipapi.PaymentCompleted:
	case membershipapi.PaymentFailed:
		button = ButtonPaymentFailure
	default:
		return fmt.Errorf("unknown payment status %q", status)
	}

	c.lock.Lock()
	if c.inflight != "" {
		c.lock.Unlock()
		return ErrBusy
	}
	member, ok := memberOf(c.state)
	if !ok || member.MemberId == 0 {
		err = c.fail(precondition(RegionPayment, "Member ID not found. Please complete registration first."))
		c.lock.Unlock()
		return err
	}
	if s, ok := c.state.(DetailsSubmitted); !ok || s.PaymentWaived {
		c.lock.Unlock()
		return fmt.Errorf("%w: payment is not pending", ErrInvalidTransition)
	}
	c.begin("payment", button, "Processing...")
	c.lock.Unlock()

	if member.Fabricated {
		c.tel.ReportWarning(report_controller_simulate_payment, "payment of fabricated member kept local", member.MemberId)
	} else {
		_, err = c.api.UpdatePayment(ctx, member.MemberId, status)
	}

	c.lock.Lock()
	defer c.lock.Unlock()
	defer c.end()

	if err != nil {
		c.tel.ReportWarning(report_controller_simulate_payment, err, member.MemberId)
		c.setError(RegionPayment, remoteMessage(err, "Payment update failed"))
		return err
	}

	err = c.apply(EventPaymentRecorded{Status: status})
	if err != nil {
		return err
	}
	if status == membershipapi.PaymentFailed {
		c.setError(RegionPayment, "Payment failed. Please try again.")
		return ErrPaymentFailed
	}
	c.clearError(RegionPayment)
	c.form.Notice = "Payment completed successfully!"
	return nil
}

// GenerateCard runs step 5 and publishes the download link of the card.
func (c *Controller) GenerateCard(ctx context.Context) (card CardResult, err error) {
	ctx, span := tracer.Start(ctx, "controller:GenerateCard")
	defer span.End()
	defer func() {
		c.observe(ctx, span, "card", err)
	}()

	c.lock.Lock()
	if c.inflight != "" {
		c.lock.Unlock()
		return CardResult{}, ErrBusy
	}
	member, ok := memberOf(c.state)
	if !ok || member.MemberId == 0 {
		err = c.fail(precondition(RegionCard, "Member ID not found. Cannot generate card."))
		c.lock.Unlock()
		return CardResult{}, err
	}
	if s, ok := c.state.(DetailsSubmitted); ok && !s.PaymentWaived {
		err = c.fail(precondition(RegionCard, "Payment not completed. Please complete payment first."))
		c.lock.Unlock()
		return CardResult{}, err
	}
	c.begin("card", ButtonGenerateCard, "Generating Card...")
	c.lock.Unlock()

	if member.Fabricated {
		card = c.placeholderCard()
	} else {
		var res membershipapi.GenerateCardResponse
		res, err = c.api.GenerateCard(ctx, member.MemberId)
		if err == nil {
			card = CardResult{
				CardPath:    res.CardPath,
				DownloadUrl: c.api.DownloadUrl(res.CardPath),
			}
		}
	}
	if err != nil && c.policy.Failure == FailFabricate {
		c.tel.ReportWarning(
			report_controller_generate_card,
			"placeholder card after failed generation",
			err,
			member.MemberId,
		)
		card = c.placeholderCard()
		err = nil
	}

	c.lock.Lock()
	if err != nil {
		c.tel.ReportWarning(report_controller_generate_card, err, member.MemberId)
		c.setError(RegionCard, remoteMessage(err, "Card generation failed"))
		c.end()
		c.lock.Unlock()
		return CardResult{}, err
	}

	err = c.apply(EventCardIssued{Card: card})
	if err != nil {
		c.end()
		c.lock.Unlock()
		return CardResult{}, err
	}
	c.clearError(RegionCard)
	c.form.DownloadUrl = card.DownloadUrl
	c.form.Notice = "Membership card generated successfully!"
	entry := journal.Entry{
		EpicNumber:    epicOf(c.state),
		MemberId:      member.MemberId,
		MembershipNo:  member.MembershipNo,
		CardPath:      card.CardPath,
		PaymentStatus: string(receiptStatusOf(c.state)),
		Mode:          c.policy.String(),
		Fabricated:    member.Fabricated || card.Fabricated,
		CreatedAt:     c.time.Now(),
	}
	c.end()
	c.lock.Unlock()

	if c.journal != nil {
		_, jerr := c.journal.Record(ctx, entry)
		if jerr != nil {
			c.tel.ReportBroken(report_controller_journal, jerr, member.MemberId)
		}
	}
	return card, nil
}

func (c *Controller) placeholderCard() CardResult {
	return CardResult{
		CardPath:    DemoCardPath,
		DownloadUrl: c.api.DownloadUrl(DemoCardPath),
		Fabricated:  true,
	}
}

// Reset clears the workflow back to an empty form. It is rejected while a
// remote call is in flight.
func (c *Controller) Reset() error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.inflight != "" {
		return ErrBusy
	}
	err := c.apply(EventResetRequested{})
	if err != nil {
		return err
	}
	c.document = nil
	c.photo = nil
	c.form = newForm()
	c.refresh()
	c.form.Notice = "Form reset successfully. You can start a new registration."
	return nil
}
