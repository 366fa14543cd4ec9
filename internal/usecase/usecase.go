// Package usecase contains the assessment flow services: link gating,
// candidate registration, the session state machine, integrity tracking,
// scoring and the HR dashboard.
package usecase

import "time"

// clock returns now() when set, falling back to wall-clock UTC.
func clock(now func() time.Time) time.Time {
	if now != nil {
		return now()
	}
	return time.Now().UTC()
}
