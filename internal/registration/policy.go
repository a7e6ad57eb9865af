package registration

import (
	"fmt"
	"strings"
)

type Verification int

const (
	// VerifyRemote uploads the document to the backend and requires the
	// strict 10 character EPIC.
	VerifyRemote Verification = iota
	// VerifyBypass skips the backend entirely and accepts any EPIC of at
	// least 3 characters.
	VerifyBypass
)

func (v Verification) String() string {
	switch v {
	case VerifyRemote:
		return "remote"
	case VerifyBypass:
		return "bypass"
	}
	return fmt.Sprintf("verification(%d)", int(v))
}

func ParseVerification(value string) (Verification, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "remote":
		return VerifyRemote, nil
	case "bypass":
		return VerifyBypass, nil
	}
	return 0, fmt.Errorf("unknown verification %q, expected remote or bypass", value)
}

type FailureMode int

const (
	// FailBlock surfaces remote failures and leaves the step retryable.
	FailBlock FailureMode = iota
	// FailFabricate substitutes a locally synthesized result for a failed
	// submission or card generation, every such result is flagged.
	FailFabricate
)

func (f FailureMode) String() string {
	switch f {
	case FailBlock:
		return "block"
	case FailFabricate:
		return "fabricate"
	}
	return fmt.Sprintf("failure(%d)", int(f))
}

func ParseFailureMode(value string) (FailureMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "block":
		return FailBlock, nil
	case "fabricate":
		return FailFabricate, nil
	}
	return 0, fmt.Errorf("unknown failure mode %q, expected block or fabricate", value)
}

type Policy struct {
	Verification Verification
	Failure      FailureMode
}

func StrictPolicy() Policy {
	return Policy{Verification: VerifyRemote, Failure: FailBlock}
}

func DemoPolicy() Policy {
	return Policy{Verification: VerifyBypass, Failure: FailFabricate}
}

// ParsePolicy resolves a preset name, an empty name means strict.
func ParsePolicy(mode string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "strict":
		return StrictPolicy(), nil
	case "demo":
		return DemoPolicy(), nil
	}
	return Policy{}, fmt.Errorf("unknown mode %q, expected strict or demo", mode)
}

func (p Policy) String() string {
	switch p {
	case StrictPolicy():
		return "strict"
	case DemoPolicy():
		return "demo"
	}
	return fmt.Sprintf("%s/%s", p.Verification, p.Failure)
}

// maxEpicLength is the length input is truncated to, 0 means no limit.
func (p Policy) maxEpicLength() int {
	if p.Verification == VerifyRemote {
		return strictEpicLength
	}
	return 0
}

// AcceptsEpic reports whether a normalized EPIC may be verified.
func (p Policy) AcceptsEpic(epic string) bool {
	if p.Verification == VerifyRemote {
		return epicPattern.MatchString(epic)
	}
	return len(epic) >= demoEpicMinLength
}

func (p Policy) epicMessage() string {
	if p.Verification == VerifyRemote {
		return "Please enter a valid 10-character EPIC number"
	}
	return "Please enter at least 3 characters"
}

func (p Policy) requiresDocument() bool {
	return p.Verification == VerifyRemote
}

func (p Policy) requiresPhoto() bool {
	return p.Verification == VerifyRemote
}

func (p Policy) waivesPayment() bool {
	return p.Verification == VerifyBypass
}
