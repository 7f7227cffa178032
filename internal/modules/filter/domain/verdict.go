package domain

// Verdict is a decision plus the rule that made it.
type Verdict struct {
	Decision Decision
	Rule     Rule
}

// Allowed reports whether the message may be forwarded.
func (v Verdict) Allowed() bool {
	return v.Decision == DecisionAllow
}

// Allow is the verdict when no present rule blocked the message.
var Allow = Verdict{Decision: DecisionAllow, Rule: RuleNone}

// BlockedBy builds a blocking verdict.
func BlockedBy(rule Rule) Verdict {
	return Verdict{Decision: DecisionBlock, Rule: rule}
}
