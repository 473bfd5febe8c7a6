package job

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	orgID := uuid.New()

	t.Run("valid job", func(t *testing.T) {
		t.Parallel()

		j, err := New("lesson_generation", orgID, json.RawMessage(`{"topic":"go"}`))
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, j.ID)
		assert.Equal(t, "lesson_generation", j.Type)
		assert.Equal(t, StatusQueued, j.Status)
		assert.Equal(t, orgID, j.OrganizationID)
		assert.JSONEq(t, `{"topic":"go"}`, string(j.Payload))
		assert.Zero(t, j.RetryCount)
		assert.Nil(t, j.StartedAt)
		assert.Nil(t, j.NextAttemptAt)
	})

	t.Run("empty payload defaults to empty object", func(t *testing.T) {
		t.Parallel()

		j, err := New("course_outline", orgID, nil)
		require.NoError(t, err)
		assert.JSONEq(t, `{}`, string(j.Payload))
	})

	t.Run("empty type rejected", func(t *testing.T) {
		t.Parallel()

		_, err := New("", orgID, nil)
		assert.ErrorIs(t, err, ErrEmptyJobType)
	})

	t.Run("empty organization rejected", func(t *testing.T) {
		t.Parallel()

		_, err := New("course_outline", uuid.Nil, nil)
		assert.ErrorIs(t, err, ErrEmptyJobOrganizationID)
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Job {
		return &Job{
			ID:             uuid.New(),
			Type:           "course_outline",
			Status:         StatusQueued,
			OrganizationID: uuid.New(),
			CreatedAt:      time.Now().UTC(),
		}
	}

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, valid().Validate())
	})

	t.Run("invalid status", func(t *testing.T) {
		t.Parallel()

		j := valid()
		j.Status = Status("paused")
		assert.ErrorIs(t, j.Validate(), ErrInvalidJobStatus)
	})

	t.Run("missing id", func(t *testing.T) {
		t.Parallel()

		j := valid()
		j.ID = uuid.Nil
		assert.ErrorIs(t, j.Validate(), ErrEmptyJobID)
	})
}

func TestLastActivity(t *testing.T) {
	t.Parallel()

	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	started := created.Add(1 * time.Minute)
	heartbeat := created.Add(5 * time.Minute)

	tests := []struct {
		name string
		job  Job
		want time.Time
	}{
		{
			name: "created only",
			job:  Job{CreatedAt: created},
			want: created,
		},
		{
			name: "started after created",
			job:  Job{CreatedAt: created, StartedAt: &started},
			want: started,
		},
		{
			name: "heartbeat is latest",
			job:  Job{CreatedAt: created, StartedAt: &started, LastHeartbeat: &heartbeat},
			want: heartbeat,
		},
		{
			name: "stale heartbeat older than start",
			job:  Job{CreatedAt: created, StartedAt: &heartbeat, LastHeartbeat: &started},
			want: heartbeat,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.job.LastActivity())
		})
	}
}
