package activities

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanTopic_FirstHopUsesOriginalQuestion(t *testing.T) {
	a := &Activities{}
	result, err := a.PlanTopic(context.Background(), PlanTopicInput{Question: "What is the capital of France?", Hop: 1})
	require.NoError(t, err)
	assert.Equal(t, "What is the capital of France?", result.Topic)
}

func TestPlanTopic_DequeuesPendingSubquestion(t *testing.T) {
	a := &Activities{}
	result, err := a.PlanTopic(context.Background(), PlanTopicInput{
		Question: "q", Hop: 2, Subquestions: []string{"first pending question", "second pending question"},
	})
	require.NoError(t, err)
	assert.Equal(t, "first pending question", result.Topic)
	assert.Equal(t, "first pending question", result.MarkAnswered)
	assert.Equal(t, []string{"second pending question"}, result.RemainingQueue)
}

func TestPlanTopic_CarriesOverSpecificNextSearchTopic(t *testing.T) {
	a := &Activities{}
	result, err := a.PlanTopic(context.Background(), PlanTopicInput{
		Question: "q", Hop: 2, NextSearchTopic: "Apollo 11 lunar landing date",
	})
	require.NoError(t, err)
	assert.Equal(t, "Apollo 11 lunar landing date", result.Topic)
}

func TestPlanTopic_FailedAttemptsOverrideWhenFindingsEmpty(t *testing.T) {
	a := &Activities{}
	result, err := a.PlanTopic(context.Background(), PlanTopicInput{
		Question: "How many 50 states are there?", Hop: 2,
		NextSearchTopic: "Apollo 11 lunar landing date",
		FailedAttempts:  2,
	})
	require.NoError(t, err)
	assert.NotEqual(t, "Apollo 11 lunar landing date", result.Topic, "failed-attempts override should replace the carried-over topic")
}

func TestInQueue(t *testing.T) {
	assert.True(t, inQueue([]string{"a", "b"}, "b"))
	assert.False(t, inQueue([]string{"a", "b"}, "c"))
	assert.False(t, inQueue(nil, "a"))
}
