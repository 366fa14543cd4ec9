package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/skillproof/internal/domain"
	"github.com/fairyhunter13/skillproof/internal/usecase"
)

func issuedSession(t *testing.T, f *fixture) domain.SkillSession {
	t.Helper()
	c := f.register(t, "dana@example.com")
	sess, err := f.sessions.RequestTask(context.Background(), f.link.Token, c.SessionID)
	require.NoError(t, err)
	return sess
}

func recordN(t *testing.T, f *fixture, sessID string, n int) domain.IntegrityLog {
	t.Helper()
	var log domain.IntegrityLog
	for i := range n {
		var err error
		log, err = f.integrity.RecordEvent(context.Background(), f.link.Token, sessID, domain.EventTabSwitch, fixedNow.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
	}
	return log
}

func TestIntegrity_FinalizeThresholds(t *testing.T) {
	cases := []struct {
		events int
		want   domain.IntegrityStatus
	}{
		{0, domain.IntegrityClean},
		{3, domain.IntegrityClean},
		{4, domain.IntegrityFlagged},
		{6, domain.IntegrityFlagged},
	}
	for _, tc := range cases {
		f := newFixture(t)
		sess := issuedSession(t, f)
		recordN(t, f, sess.ID, tc.events)
		got, err := f.integrity.Finalize(context.Background(), sess.ID)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "events=%d", tc.events)
		assert.Equal(t, tc.events, f.store.logs[sess.ID].ViolationCount)
	}
}

func TestIntegrity_EagerFlagAfterSixEvents(t *testing.T) {
	f := newFixture(t)
	sess := issuedSession(t, f)

	log := recordN(t, f, sess.ID, 5)
	assert.Equal(t, domain.IntegrityClean, log.Status)
	assert.Equal(t, domain.IntegrityClean, f.store.logs[sess.ID].Status)

	log = recordN(t, f, sess.ID, 1)
	assert.Equal(t, domain.IntegrityFlagged, log.Status)
	assert.Equal(t, 6, log.ViolationCount)
	assert.Equal(t, domain.IntegrityFlagged, f.store.logs[sess.ID].Status)
}

func TestIntegrity_FinalizeOverwritesEagerValue(t *testing.T) {
	f := newFixture(t)
	sess := issuedSession(t, f)
	recordN(t, f, sess.ID, 2)
	lg := f.store.logs[sess.ID]
	lg.Status = domain.IntegrityFlagged
	f.store.logs[sess.ID] = lg

	got, err := f.integrity.Finalize(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IntegrityClean, got)
	assert.Equal(t, domain.IntegrityClean, f.store.logs[sess.ID].Status)
}

func TestIntegrity_FinalizeWithoutLogIsClean(t *testing.T) {
	f := newFixture(t)
	got, err := f.integrity.Finalize(context.Background(), "sess-without-log")
	require.NoError(t, err)
	assert.Equal(t, domain.IntegrityClean, got)
}

func TestIntegrity_RejectsEventsAfterSubmission(t *testing.T) {
	f := newFixture(t)
	sess := issuedSession(t, f)
	_, err := f.sessions.SubmitAnswer(context.Background(), f.link.Token, sess.ID, usecase.AnswerInput{Explanation: "my explanation"})
	require.NoError(t, err)

	_, err = f.integrity.RecordEvent(context.Background(), f.link.Token, sess.ID, domain.EventCopyAttempt, fixedNow)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestIntegrity_RejectsUnknownType(t *testing.T) {
	f := newFixture(t)
	sess := issuedSession(t, f)
	_, err := f.integrity.RecordEvent(context.Background(), f.link.Token, sess.ID, domain.IntegrityEventType("SCREENSHOT"), fixedNow)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestIntegrity_ZeroTimestampUsesClock(t *testing.T) {
	f := newFixture(t)
	sess := issuedSession(t, f)
	log, err := f.integrity.RecordEvent(context.Background(), f.link.Token, sess.ID, domain.EventIdleTimeout, time.Time{})
	require.NoError(t, err)
	require.Len(t, log.Events, 1)
	assert.Equal(t, fixedNow, log.Events[0].Timestamp)
}
