package executors

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/draftforge/draftforge-api/internal/job"
	"github.com/draftforge/draftforge-api/internal/material"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLessonGenerationExecutor_GeneratesOneSectionAndYields(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{content: "section one content"}
	store := &memMaterialStore{}
	exec, err := NewLessonGenerationExecutor(gen, store, testLogger())
	require.NoError(t, err)

	jobID := uuid.New()
	orgID := uuid.New()
	payload, err := json.Marshal(map[string]any{
		"topic":        "Go Concurrency",
		"sections":     []string{"Goroutines", "Channels", "Select"},
		"next_section": 0,
	})
	require.NoError(t, err)

	outcome, err := exec.Execute(context.Background(), job.ExecutionContext{
		JobID:          jobID,
		OrganizationID: orgID,
		Payload:        payload,
	})
	require.NoError(t, err)

	require.NotNil(t, outcome.Yield, "executor should yield after one section")
	assert.Equal(t, "generated section 1 of 3", outcome.Yield.Message)
	assert.Equal(t, 1, outcome.Yield.PayloadPatch["next_section"])

	ids, ok := outcome.Yield.PayloadPatch["material_ids"].([]string)
	require.True(t, ok)
	require.Len(t, ids, 1)

	saved, err := store.ListForJob(context.Background(), jobID)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, ids[0], saved[0].ID.String())
	assert.Equal(t, material.KindLessonSection, saved[0].Kind)
	assert.Equal(t, "Goroutines", saved[0].Title)
	assert.Equal(t, "section one content", saved[0].Content)
	assert.Equal(t, 0, saved[0].Position)
	assert.Equal(t, orgID, saved[0].OrganizationID)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Goroutines")
	assert.Contains(t, gen.prompts[0], "Go Concurrency")
}

func TestLessonGenerationExecutor_CompletesWhenCursorPassesEnd(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{}
	store := &memMaterialStore{}
	exec, err := NewLessonGenerationExecutor(gen, store, testLogger())
	require.NoError(t, err)

	payload, err := json.Marshal(map[string]any{
		"topic":        "Go Concurrency",
		"sections":     []string{"Goroutines", "Channels"},
		"next_section": 2,
		"material_ids": []string{"a", "b"},
	})
	require.NoError(t, err)

	outcome, err := exec.Execute(context.Background(), job.ExecutionContext{
		JobID:          uuid.New(),
		OrganizationID: uuid.New(),
		Payload:        payload,
	})
	require.NoError(t, err)

	require.Nil(t, outcome.Yield)
	var result lessonResult
	require.NoError(t, json.Unmarshal(outcome.Result, &result))
	assert.Equal(t, "Go Concurrency", result.Topic)
	assert.Equal(t, []string{"Goroutines", "Channels"}, result.Sections)
	assert.Equal(t, []string{"a", "b"}, result.MaterialIDs)

	assert.Empty(t, gen.prompts, "terminal invocation should not call the generator")
}

func TestLessonGenerationExecutor_FullLifecycle(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{}
	store := &memMaterialStore{}
	exec, err := NewLessonGenerationExecutor(gen, store, testLogger())
	require.NoError(t, err)

	jobID := uuid.New()
	orgID := uuid.New()
	payload := json.RawMessage(`{"topic":"Databases","sections":["Indexes","Transactions"]}`)

	// Drive the executor the way the worker would: apply each patch to the
	// payload and invoke again until it completes.
	var outcome job.Outcome
	for i := 0; i < 10; i++ {
		outcome, err = exec.Execute(context.Background(), job.ExecutionContext{
			JobID:          jobID,
			OrganizationID: orgID,
			Payload:        payload,
		})
		require.NoError(t, err)
		if outcome.Yield == nil {
			break
		}

		var current map[string]any
		require.NoError(t, json.Unmarshal(payload, &current))
		for k, v := range outcome.Yield.PayloadPatch {
			current[k] = v
		}
		payload, err = json.Marshal(current)
		require.NoError(t, err)
	}

	require.Nil(t, outcome.Yield, "lesson should complete")
	var result lessonResult
	require.NoError(t, json.Unmarshal(outcome.Result, &result))
	require.Len(t, result.MaterialIDs, 2)

	count, err := store.CountForJob(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Len(t, gen.prompts, 2)
}

func TestLessonGenerationExecutor_InvalidPayloads(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
	}{
		{name: "malformed JSON", payload: `{not json`},
		{name: "missing topic", payload: `{"sections":["A"]}`},
		{name: "no sections", payload: `{"topic":"T"}`},
		{name: "negative cursor", payload: `{"topic":"T","sections":["A"],"next_section":-1}`},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			exec, err := NewLessonGenerationExecutor(&fakeGenerator{}, &memMaterialStore{}, testLogger())
			require.NoError(t, err)

			_, err = exec.Execute(context.Background(), job.ExecutionContext{
				JobID:          uuid.New(),
				OrganizationID: uuid.New(),
				Payload:        json.RawMessage(tc.payload),
			})
			assert.Error(t, err)
		})
	}
}

func TestLessonGenerationExecutor_GeneratorErrorPropagates(t *testing.T) {
	t.Parallel()

	genErr := errors.New("model unavailable")
	exec, err := NewLessonGenerationExecutor(&fakeGenerator{err: genErr}, &memMaterialStore{}, testLogger())
	require.NoError(t, err)

	_, err = exec.Execute(context.Background(), job.ExecutionContext{
		JobID:          uuid.New(),
		OrganizationID: uuid.New(),
		Payload:        json.RawMessage(`{"topic":"T","sections":["A"]}`),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, genErr)
}

func TestLessonGenerationExecutor_SaveErrorPropagates(t *testing.T) {
	t.Parallel()

	saveErr := errors.New("insert failed")
	exec, err := NewLessonGenerationExecutor(&fakeGenerator{}, &memMaterialStore{saveErr: saveErr}, testLogger())
	require.NoError(t, err)

	_, err = exec.Execute(context.Background(), job.ExecutionContext{
		JobID:          uuid.New(),
		OrganizationID: uuid.New(),
		Payload:        json.RawMessage(`{"topic":"T","sections":["A"]}`),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, saveErr)
}
