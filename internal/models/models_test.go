package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatlens/chatlens/internal/rubric"
	"github.com/chatlens/chatlens/internal/transcript"
)

func sampleTranscript() transcript.Transcript {
	return transcript.Transcript{
		ID: "conv-1",
		Messages: []transcript.Message{
			{Role: transcript.RoleCustomer, Content: "I was double charged."},
			{Role: transcript.RoleAgent, Content: "I see the duplicate charge and have refunded it."},
		},
	}
}

func TestNewEvaluationRequest(t *testing.T) {
	req := NewEvaluationRequest(sampleTranscript(), rubric.Default())

	assert.NotEmpty(t, req.ID)
	require.NoError(t, req.Validate())

	other := NewEvaluationRequest(sampleTranscript(), rubric.Default())
	assert.NotEqual(t, req.ID, other.ID)
}

func TestEvaluationRequestValidate(t *testing.T) {
	noRubric := &EvaluationRequest{Transcript: sampleTranscript()}
	assert.Error(t, noRubric.Validate())

	emptyTranscript := &EvaluationRequest{Rubric: rubric.Default()}
	assert.Error(t, emptyTranscript.Validate())

	badRubric := rubric.Default()
	badRubric.Categories[0].Weight = 0.9
	invalid := &EvaluationRequest{Transcript: sampleTranscript(), Rubric: badRubric}
	assert.Error(t, invalid.Validate())
}

func TestProviderErrorMessage(t *testing.T) {
	err := &ProviderError{Provider: "openai-judge", Attempts: 3, StatusCode: 503, Message: "service unavailable"}
	assert.Contains(t, err.Error(), "openai-judge")
	assert.Contains(t, err.Error(), "3 attempt(s)")
}

func TestSuccesses(t *testing.T) {
	results := []JudgeResult{
		{Provider: "a", Succeeded: true},
		{Provider: "b", Succeeded: false, Err: &ProviderError{Provider: "b", Message: "timeout"}},
		{Provider: "c", Succeeded: true},
	}

	ok := Successes(results)
	require.Len(t, ok, 2)
	assert.Equal(t, "a", ok[0].Provider)
	assert.Equal(t, "c", ok[1].Provider)

	assert.Empty(t, Successes(nil))
}
