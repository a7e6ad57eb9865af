package registration

import (
	"fmt"
	"membership-workflow/internal/membershipapi"
)

// ReceiptStatus is the payment status shown on the receipt panel.
type ReceiptStatus string

const (
	ReceiptPending ReceiptStatus = "Pending Payment"
	ReceiptPaid    ReceiptStatus = "Paid"
	ReceiptFailed  ReceiptStatus = "Payment Failed"
	ReceiptWaived  ReceiptStatus = "Waived"
)

type MemberRecord struct {
	MemberId     int64
	MembershipNo string
	// Fabricated is set when the record was synthesized locally after the
	// backend failed, the backend has never seen it.
	Fabricated bool
}

type CardResult struct {
	CardPath    string
	DownloadUrl string
	Fabricated  bool
}

// State is one of Idle, EpicEntered, DocumentVerified, DetailsSubmitted,
// PaymentCompleted or CardGenerated.
type State interface {
	Name() string
	// Step is the 1-based step of the workflow the user is on.
	Step() int
	isState()
}

type Idle struct{}

type EpicEntered struct {
	Epic string
}

type DocumentVerified struct {
	Epic  string
	Token string
}

type DetailsSubmitted struct {
	Epic          string
	Token         string
	Member        MemberRecord
	Payment       ReceiptStatus
	PaymentWaived bool
}

type PaymentCompleted struct {
	Epic   string
	Token  string
	Member MemberRecord
}

type CardGenerated struct {
	Epic          string
	Token         string
	Member        MemberRecord
	Card          CardResult
	PaymentWaived bool
}

func (Idle) Name() string             { return "idle" }
func (EpicEntered) Name() string      { return "epic-entered" }
func (DocumentVerified) Name() string { return "document-verified" }
func (DetailsSubmitted) Name() string { return "details-submitted" }
func (PaymentCompleted) Name() string { return "payment-completed" }
func (CardGenerated) Name() string    { return "card-generated" }

func (Idle) Step() int             { return 1 }
func (EpicEntered) Step() int      { return 2 }
func (DocumentVerified) Step() int { return 3 }
func (s DetailsSubmitted) Step() int {
	if s.PaymentWaived {
		return 5
	}
	return 4
}
func (PaymentCompleted) Step() int { return 5 }
func (CardGenerated) Step() int    { return 5 }

func (Idle) isState()             {}
func (EpicEntered) isState()      {}
func (DocumentVerified) isState() {}
func (DetailsSubmitted) isState() {}
func (PaymentCompleted) isState() {}
func (CardGenerated) isState()    {}

type Event interface {
	Name() string
	isEvent()
}

type EventEpicEntered struct {
	Epic string
}

type EventEpicCleared struct{}

type EventDocumentVerified struct {
	Token string
}

type EventDetailsSubmitted struct {
	Member        MemberRecord
	PaymentWaived bool
}

type EventPaymentRecorded struct {
	Status membershipapi.PaymentStatus
}

type EventCardIssued struct {
	Card CardResult
}

type EventResetRequested struct{}

func (EventEpicEntered) Name() string      { return "epic-entered" }
func (EventEpicCleared) Name() string      { return "epic-cleared" }
func (EventDocumentVerified) Name() string { return "document-verified" }
func (EventDetailsSubmitted) Name() string { return "details-submitted" }
func (EventPaymentRecorded) Name() string  { return "payment-recorded" }
func (EventCardIssued) Name() string       { return "card-issued" }
func (EventResetRequested) Name() string   { return "reset-requested" }

func (EventEpicEntered) isEvent()      {}
func (EventEpicCleared) isEvent()      {}
func (EventDocumentVerified) isEvent() {}
func (EventDetailsSubmitted) isEvent() {}
func (EventPaymentRecorded) isEvent()  {}
func (EventCardIssued) isEvent()       {}
func (EventResetRequested) isEvent()   {}

// Transition computes the state that follows `current` when `event` happens.
// Illegal pairs return ErrInvalidTransition together with `current`.
func Transition(current State, event Event) (State, error) {
	switch e := event.(type) {
	case EventResetRequested:
		return Idle{}, nil

	case EventEpicEntered:
		if e.Epic == "" {
			break
		}
		switch current.(type) {
		case Idle, EpicEntered:
			return EpicEntered{Epic: e.Epic}, nil
		}

	case EventEpicCleared:
		switch current.(type) {
		case Idle, EpicEntered:
			return Idle{}, nil
		}

	case EventDocumentVerified:
		s, ok := current.(EpicEntered)
		if ok && e.Token != "" {
			return DocumentVerified{Epic: s.Epic, Token: e.Token}, nil
		}

	case EventDetailsSubmitted:
		s, ok := current.(DocumentVerified)
		if !ok {
			break
		}
		payment := ReceiptPending
		if e.PaymentWaived {
			payment = ReceiptWaived
		}
		return DetailsSubmitted{
			Epic:          s.Epic,
			Token:         s.Token,
			Member:        e.Member,
			Payment:       payment,
			PaymentWaived: e.PaymentWaived,
		}, nil

	case EventPaymentRecorded:
		s, ok := current.(DetailsSubmitted)
		if !ok || s.PaymentWaived {
			break
		}
		switch e.Status {
		case membershipapi.PaymentCompleted:
			return PaymentCompleted{Epic: s.Epic, Token: s.Token, Member: s.Member}, nil
		case membershipapi.PaymentFailed:
			s.Payment = ReceiptFailed
			return s, nil
		}

	case EventCardIssued:
		switch s := current.(type) {
		case PaymentCompleted:
			return CardGenerated{Epic: s.Epic, Token: s.Token, Member: s.Member, Card: e.Card}, nil
		case DetailsSubmitted:
			if s.PaymentWaived {
				return CardGenerated{
					Epic:          s.Epic,
					Token:         s.Token,
					Member:        s.Member,
					Card:          e.Card,
					PaymentWaived: true,
				}, nil
			}
		case CardGenerated:
			s.Card = e.Card
			return s, nil
		}
	}

	return current, fmt.Errorf("%w: %s while %s", ErrInvalidTransition, event.Name(), current.Name())
}

func epicOf(s State) string {
	switch s := s.(type) {
	case EpicEntered:
		return s.Epic
	case DocumentVerified:
		return s.Epic
	case DetailsSubmitted:
		return s.Epic
	case PaymentCompleted:
		return s.Epic
	case CardGenerated:
		return s.Epic
	}
	return ""
}

func tokenOf(s State) string {
	switch s := s.(type) {
	case DocumentVerified:
		return s.Token
	case DetailsSubmitted:
		return s.Token
	case PaymentCompleted:
		return s.Token
	case CardGenerated:
		return s.Token
	}
	return ""
}

func memberOf(s State) (MemberRecord, bool) {
	switch s := s.(type) {
	case DetailsSubmitted:
		return s.Member, true
	case PaymentCompleted:
		return s.Member, true
	case CardGenerated:
		return s.Member, true
	}
	return MemberRecord{}, false
}

func receiptStatusOf(s State) ReceiptStatus {
	switch s := s.(type) {
	case DetailsSubmitted:
		return s.Payment
	case PaymentCompleted:
		return ReceiptPaid
	case CardGenerated:
		if s.PaymentWaived {
			return ReceiptWaived
		}
		return ReceiptPaid
	}
	return ""
}
