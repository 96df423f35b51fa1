package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"VPNLogSift/internal/models"
)

func ms(v int64) *int64 { return &v }

func TestAggregateEmpty(t *testing.T) {
	sum := Aggregate(nil)
	assert.Zero(t, sum.Attempts)
	assert.Zero(t, sum.SuccessRate)
	assert.Nil(t, sum.MedianConnect)
	assert.Zero(t, sum.ConnectSample)
	assert.Empty(t, sum.TopReasons)
}

func TestAggregate(t *testing.T) {
	sessions := []models.Session{
		{Outcome: models.OutcomeSuccess, PhaseMs: models.PhaseTimes{Tunnel: ms(3000)}},
		{Outcome: models.OutcomeSuccess, PhaseMs: models.PhaseTimes{Tunnel: ms(1000)}},
		{Outcome: models.OutcomeFail, FailReason: models.ReasonCert},
		{Outcome: models.OutcomeFail, FailReason: models.ReasonAuth},
		{Outcome: models.OutcomeFail, FailReason: models.ReasonAuth},
		{Outcome: models.OutcomeUnknown},
		// успех с записанной позже причиной тоже попадает в причины
		{Outcome: models.OutcomeSuccess, FailReason: models.ReasonNetwork, PhaseMs: models.PhaseTimes{Tunnel: ms(2000)}},
		{Outcome: models.OutcomeFail, FailReason: models.ReasonCert, PhaseMs: models.PhaseTimes{Tunnel: ms(9000)}},
	}

	sum := Aggregate(sessions)
	assert.Equal(t, 8, sum.Attempts)
	assert.Equal(t, 3, sum.Successes)
	assert.Equal(t, 5, sum.Failures)
	assert.InDelta(t, 37.5, sum.SuccessRate, 1e-9)

	// 1000 2000 3000 9000: берётся верхняя медиана
	require.NotNil(t, sum.MedianConnect)
	assert.Equal(t, 3*time.Second, *sum.MedianConnect)
	assert.Equal(t, 4, sum.ConnectSample)

	assert.Equal(t, []ReasonCount{
		{Reason: models.ReasonCert, Count: 2},
		{Reason: models.ReasonAuth, Count: 2},
		{Reason: models.ReasonNetwork, Count: 1},
	}, sum.TopReasons)
}

func TestAggregateTopReasonsLimit(t *testing.T) {
	var sessions []models.Session
	for _, r := range []string{"a", "b", "c", "d", "e", "f", "f"} {
		sessions = append(sessions, models.Session{Outcome: models.OutcomeFail, FailReason: r})
	}
	sum := Aggregate(sessions)
	require.Len(t, sum.TopReasons, TopReasonsLimit)
	assert.Equal(t, ReasonCount{Reason: "f", Count: 2}, sum.TopReasons[0])
	assert.Equal(t, "d", sum.TopReasons[4].Reason)
}
