package assessment

import "github.com/fairyhunter13/skillproof/internal/domain"

const (
	// eagerFlagThreshold flags a live session once it exceeds this many events.
	eagerFlagThreshold = 5
	// finalFlagThreshold decides the verdict recorded at submission.
	finalFlagThreshold = 3
)

// EagerFlag reports whether a log holding eventCount events must be flagged
// while the session is still running.
func EagerFlag(eventCount int) bool { return eventCount > eagerFlagThreshold }

// FinalIntegrity is the verdict stored when the answer is submitted. It
// supersedes any eager flag.
func FinalIntegrity(eventCount int) domain.IntegrityStatus {
	if eventCount > finalFlagThreshold {
		return domain.IntegrityFlagged
	}
	return domain.IntegrityClean
}
