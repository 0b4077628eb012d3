package media

// Rule identifies one video note eligibility rule.
type Rule int

const (
	RuleNone Rule = iota
	RuleTooLarge
	RuleTooLong
	RuleNotSquare
	RuleTooWide
)

func (r Rule) String() string {
	switch r {
	case RuleNone:
		return "none"
	case RuleTooLarge:
		return "tooLarge"
	case RuleTooLong:
		return "tooLong"
	case RuleNotSquare:
		return "notSquare"
	case RuleTooWide:
		return "tooWide"
	default:
		return "unknown"
	}
}

// squareTolerance is the largest width/height difference still rendered as square.
const squareTolerance = 1

// Limits are the platform's video note constraints.
type Limits struct {
	MaxDimension int
	MaxDuration  int
	MaxSize      int64
}

// DefaultLimits returns the platform's published video note limits.
func DefaultLimits() Limits {
	return Limits{
		MaxDimension: 640,
		MaxDuration:  60,
		MaxSize:      8_389_000,
	}
}

// Verdict is the result of validating one Descriptor.
//
// Violations lists every rule that fired in notice order: size, squareness,
// dimension, duration. FailedRule is the first of them and RuleNone when the
// descriptor was accepted.
type Verdict struct {
	Accepted   bool
	FailedRule Rule
	Violations []Rule
}

// Validate evaluates every rule against d. It never short-circuits, so a
// descriptor that breaks several rules reports all of them.
func (l Limits) Validate(d Descriptor) Verdict {
	var violations []Rule

	if d.SizeBytes >= l.MaxSize {
		violations = append(violations, RuleTooLarge)
	}
	if abs(d.HeightPx-d.WidthPx) > squareTolerance {
		violations = append(violations, RuleNotSquare)
	}
	if d.HeightPx > l.MaxDimension || d.WidthPx > l.MaxDimension {
		violations = append(violations, RuleTooWide)
	}
	if d.DurationSeconds > l.MaxDuration {
		violations = append(violations, RuleTooLong)
	}

	if len(violations) == 0 {
		return Verdict{Accepted: true, FailedRule: RuleNone}
	}
	return Verdict{FailedRule: violations[0], Violations: violations}
}

// NoteLength returns the clip side length to request from the platform.
// Sources smaller than MaxDimension keep their own width; otherwise 0 lets
// the platform use its default.
func (l Limits) NoteLength(d Descriptor) int {
	if d.HeightPx < l.MaxDimension {
		return d.WidthPx
	}
	return 0
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
