package registration

import (
	"membership-workflow/internal/membershipapi"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransition(t *testing.T) {
	member := MemberRecord{MemberId: 42, MembershipNo: "BSP-202408-000042"}
	card := CardResult{CardPath: "cards/42.png"}
	submitted := DetailsSubmitted{
		Epic:    "ABC1234567",
		Token:   "token",
		Member:  member,
		Payment: ReceiptPending,
	}
	waived := DetailsSubmitted{
		Epic:          "ABC",
		Token:         "demo-token",
		Member:        member,
		Payment:       ReceiptWaived,
		PaymentWaived: true,
	}
	paid := PaymentCompleted{Epic: "ABC1234567", Token: "token", Member: member}

	testCases := []struct {
		name     string
		current  State
		event    Event
		expected State
		invalid  bool
	}{
		{
			name:     "enter epic",
			current:  Idle{},
			event:    EventEpicEntered{Epic: "ABC"},
			expected: EpicEntered{Epic: "ABC"},
		},
		{
			name:     "edit epic",
			current:  EpicEntered{Epic: "ABC"},
			event:    EventEpicEntered{Epic: "ABCD"},
			expected: EpicEntered{Epic: "ABCD"},
		},
		{
			name:    "empty epic",
			current: Idle{},
			event:   EventEpicEntered{},
			invalid: true,
		},
		{
			name:     "clear epic",
			current:  EpicEntered{Epic: "ABC"},
			event:    EventEpicCleared{},
			expected: Idle{},
		},
		{
			name:    "clear locked epic",
			current: DocumentVerified{Epic: "ABC", Token: "t"},
			event:   EventEpicCleared{},
			invalid: true,
		},
		{
			name:     "verify",
			current:  EpicEntered{Epic: "ABC1234567"},
			event:    EventDocumentVerified{Token: "token"},
			expected: DocumentVerified{Epic: "ABC1234567", Token: "token"},
		},
		{
			name:    "verify without token",
			current: EpicEntered{Epic: "ABC1234567"},
			event:   EventDocumentVerified{},
			invalid: true,
		},
		{
			name:    "verify from idle",
			current: Idle{},
			event:   EventDocumentVerified{Token: "token"},
			invalid: true,
		},
		{
			name:     "submit",
			current:  DocumentVerified{Epic: "ABC1234567", Token: "token"},
			event:    EventDetailsSubmitted{Member: member},
			expected: submitted,
		},
		{
			name:     "submit waived",
			current:  DocumentVerified{Epic: "ABC", Token: "demo-token"},
			event:    EventDetailsSubmitted{Member: member, PaymentWaived: true},
			expected: waived,
		},
		{
			name:    "submit twice",
			current: submitted,
			event:   EventDetailsSubmitted{Member: member},
			invalid: true,
		},
		{
			name:     "payment completed",
			current:  submitted,
			event:    EventPaymentRecorded{Status: membershipapi.PaymentCompleted},
			expected: paid,
		},
		{
			name:    "payment failed",
			current: submitted,
			event:   EventPaymentRecorded{Status: membershipapi.PaymentFailed},
			expected: DetailsSubmitted{
				Epic:    "ABC1234567",
				Token:   "token",
				Member:  member,
				Payment: ReceiptFailed,
			},
		},
		{
			name:    "payment while waived",
			current: waived,
			event:   EventPaymentRecorded{Status: membershipapi.PaymentCompleted},
			invalid: true,
		},
		{
			name:    "payment after paid",
			current: paid,
			event:   EventPaymentRecorded{Status: membershipapi.PaymentCompleted},
			invalid: true,
		},
		{
			name:    "unknown payment status",
			current: submitted,
			event:   EventPaymentRecorded{Status: "pending"},
			invalid: true,
		},
		{
			name:    "card before payment",
			current: submitted,
			event:   EventCardIssued{Card: card},
			invalid: true,
		},
		{
			name:     "card after payment",
			current:  paid,
			event:    EventCardIssued{Card: card},
			expected: CardGenerated{Epic: "ABC1234567", Token: "token", Member: member, Card: card},
		},
		{
			name:    "card with waived payment",
			current: waived,
			event:   EventCardIssued{Card: card},
			expected: CardGenerated{
				Epic:          "ABC",
				Token:         "demo-token",
				Member:        member,
				Card:          card,
				PaymentWaived: true,
			},
		},
		{
			name:    "card regenerated",
			current: CardGenerated{Epic: "ABC1234567", Token: "token", Member: member, Card: card},
			event:   EventCardIssued{Card: CardResult{CardPath: "cards/42-v2.png"}},
			expected: CardGenerated{
				Epic:   "ABC1234567",
				Token:  "token",
				Member: member,
				Card:   CardResult{CardPath: "cards/42-v2.png"},
			},
		},
		{
			name:     "reset",
			current:  paid,
			event:    EventResetRequested{},
			expected: Idle{},
		},
		{
			name:     "reset idle",
			current:  Idle{},
			event:    EventResetRequested{},
			expected: Idle{},
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			next, err := Transition(test.current, test.event)
			if test.invalid {
				require.ErrorIs(t, err, ErrInvalidTransition)
				require.Equal(t, test.current, next)
				return
			}
			require.NoError(t, err)
			require.Equal(t, test.expected, next)
		})
	}
}

func TestStateSteps(t *testing.T) {
	require.Equal(t, 1, Idle{}.Step())
	require.Equal(t, 2, EpicEntered{}.Step())
	require.Equal(t, 3, DocumentVerified{}.Step())
	require.Equal(t, 4, DetailsSubmitted{}.Step())
	require.Equal(t, 5, DetailsSubmitted{PaymentWaived: true}.Step())
	require.Equal(t, 5, PaymentCompleted{}.Step())
	require.Equal(t, 5, CardGenerated{}.Step())
}

func TestParsePolicy(t *testing.T) {
	policy, err := ParsePolicy("")
	require.NoError(t, err)
	require.Equal(t, StrictPolicy(), policy)
	require.Equal(t, "strict", policy.String())

	policy, err = ParsePolicy(" Demo ")
	require.NoError(t, err)
	require.Equal(t, DemoPolicy(), policy)
	require.Equal(t, "demo", policy.String())

	_, err = ParsePolicy("lenient")
	require.Error(t, err)

	custom := Policy{Verification: VerifyRemote, Failure: FailFabricate}
	require.Equal(t, "remote/fabricate", custom.String())

	verification, err := ParseVerification("bypass")
	require.NoError(t, err)
	require.Equal(t, VerifyBypass, verification)
	_, err = ParseFailureMode("retry")
	require.Error(t, err)
}
