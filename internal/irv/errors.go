package irv

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedAssertion      = errors.New("malformed assertion")
	ErrAmbiguousReportedWinner = errors.New("reported winner is ambiguous")
	ErrUnknownCandidate        = errors.New("unknown candidate")
	ErrNotContinuing           = errors.New("candidate is not continuing")
)

func malformed(handle, format string, args ...any) error {
	return fmt.Errorf("%w %q: %s", ErrMalformedAssertion, handle, fmt.Sprintf(format, args...))
}

func ambiguousWinner(winners []Candidate) error {
	return fmt.Errorf("%w: %d winners reported %v", ErrAmbiguousReportedWinner, len(winners), winners)
}

func unknownCandidate(c Candidate) error {
	return fmt.Errorf("%w: %q", ErrUnknownCandidate, c)
}
