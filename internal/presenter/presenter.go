// Package presenter turns a ranked prediction into what is shown to the user.
package presenter

import (
	"fmt"

	"github.com/ayusman/handsign/internal/inference"
)

// Display thresholds on the top candidate's probability.
const (
	// SecondaryThreshold: below it the runner-up is shown too.
	SecondaryThreshold = 0.8
	// ConfidentThreshold: above it the decision is rendered as confident.
	ConfidentThreshold = 0.7
)

// Tier selects the styling of a decision.
type Tier int

const (
	TierUncertain Tier = iota
	TierConfident
)

// String implements fmt.Stringer.
func (t Tier) String() string {
	switch t {
	case TierUncertain:
		return "uncertain"
	case TierConfident:
		return "confident"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// MarshalText encodes the tier by name.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Decision is the rendered outcome of one prediction.
type Decision struct {
	Primary   inference.Candidate  `json:"primary"`
	Secondary *inference.Candidate `json:"secondary,omitempty"`
	Tier      Tier                 `json:"tier"`
}

// Present applies the display policy. It returns false for an absent
// prediction.
func Present(pred inference.Prediction) (Decision, bool) {
	if len(pred) == 0 {
		return Decision{}, false
	}

	d := Decision{Primary: pred[0], Tier: TierUncertain}
	p1 := pred[0].Probability

	if p1 < SecondaryThreshold && len(pred) > 1 {
		second := pred[1]
		d.Secondary = &second
	}
	if p1 > ConfidentThreshold {
		d.Tier = TierConfident
	}
	return d, true
}

// Lines formats the decision as overlay text, primary first.
func (d Decision) Lines() []string {
	lines := []string{fmt.Sprintf("%s: %.1f%%", d.Primary.Sign, d.Primary.Probability*100)}
	if d.Secondary != nil {
		lines = append(lines, fmt.Sprintf("%s: %.1f%%", d.Secondary.Sign, d.Secondary.Probability*100))
	}
	return lines
}
