package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type mockCleaner struct {
	retention time.Duration
	deleted   int64
	err       error
	logged    []int64
	loggedErr error
}

func (m *mockCleaner) DeleteOldEvents(retention time.Duration) (int64, error) {
	m.retention = retention
	return m.deleted, m.err
}

func (m *mockCleaner) LogCleanup(deleted int64, err error) {
	m.logged = append(m.logged, deleted)
	m.loggedErr = err
}

func TestCleanupAuditEventsTaskConfig(t *testing.T) {
	cfg := CleanupAuditEventsTask{}.Config()

	assert.Equal(t, "cleanup_audit_events", cfg.Name)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
}

func TestCleanupAuditEventsProcessor(t *testing.T) {
	ctx := context.Background()

	t.Run("uses task retention", func(t *testing.T) {
		cleaner := &mockCleaner{deleted: 4}
		err := CleanupAuditEventsProcessor(cleaner)(ctx, CleanupAuditEventsTask{RetentionDays: 7})
		assert.NoError(t, err)
		assert.Equal(t, 7*24*time.Hour, cleaner.retention)
		assert.Equal(t, []int64{4}, cleaner.logged)
	})

	t.Run("defaults retention", func(t *testing.T) {
		cleaner := &mockCleaner{}
		assert.NoError(t, CleanupAuditEventsProcessor(cleaner)(ctx, CleanupAuditEventsTask{}))
		assert.Equal(t, DefaultAuditRetentionDays*24*time.Hour, cleaner.retention)
	})

	t.Run("failure is recorded and returned", func(t *testing.T) {
		cleaner := &mockCleaner{err: errors.New("locked")}
		err := CleanupAuditEventsProcessor(cleaner)(ctx, CleanupAuditEventsTask{RetentionDays: 1})
		assert.ErrorContains(t, err, "locked")
		assert.EqualError(t, cleaner.loggedErr, "locked")
	})

	t.Run("nil cleaner", func(t *testing.T) {
		assert.Error(t, CleanupAuditEventsProcessor(nil)(ctx, CleanupAuditEventsTask{}))
	})
}
