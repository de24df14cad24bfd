package queue_test

import (
	"context"
	"testing"
	"time"

	"backend-antrian-klinik/internal/apperr"
	"backend-antrian-klinik/internal/models"
	"backend-antrian-klinik/internal/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateWait(t *testing.T) {
	start := t0
	tests := []struct {
		name      string
		average   float64
		start     *time.Time
		elapsed   time.Duration
		ahead     int
		remaining float64
		wait      float64
	}{
		{"nobody served", 10, nil, 0, 0, 0, 0},
		{"nobody served, two ahead", 10, nil, 0, 2, 0, 10},
		{"half done, nobody ahead", 10, &start, 5 * time.Minute, 0, 5, 5},
		{"half done, one ahead", 10, &start, 5 * time.Minute, 1, 5, 5},
		{"half done, three ahead", 10, &start, 5 * time.Minute, 3, 5, 25},
		{"overrun clamps to zero", 10, &start, 25 * time.Minute, 2, 0, 10},
		{"fractional average", 7.5, &start, 90 * time.Second, 2, 6, 13.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est := queue.EstimateWait(tt.average, tt.start, t0.Add(tt.elapsed), tt.ahead)
			assert.InDelta(t, tt.remaining, est.Remaining, 1e-9)
			assert.InDelta(t, tt.wait, est.Wait, 1e-9)
			assert.Equal(t, tt.average, est.Average)
		})
	}
}

func TestAverageConsultation(t *testing.T) {
	assert.Equal(t, 10.0, queue.AverageConsultation(0, 0, 10))
	assert.Equal(t, 3.2, queue.AverageConsultation(3.2, 1, 10))
}

func TestStatus_ScenarioHalfwayThroughConsultation(t *testing.T) {
	f := newFixture(t, queue.Options{})
	ctx := context.Background()

	f.join(t, patient(100))
	f.join(t, patient(101))
	_, err := f.svc.CallNext(ctx, f.at(), f.provider.ID, f.operator)
	require.NoError(t, err)

	f.clk.Advance(5 * time.Minute)
	status, err := f.svc.Status(ctx, f.at(), f.provider.ID, patient(101))
	require.NoError(t, err)

	assert.True(t, status.InQueue)
	require.NotNil(t, status.CurrentlyServing)
	assert.Equal(t, 1, *status.CurrentlyServing)
	assert.Equal(t, 2, status.YourToken)
	assert.Equal(t, 0, status.PeopleAhead)
	assert.Equal(t, 5.0, status.RemainingTime)
	assert.Equal(t, 5.0, status.EstimatedWaitMinutes)
	assert.Equal(t, 10.0, status.AverageConsultationTime)
}

func TestStatus_UsesMeasuredAverage(t *testing.T) {
	f := newFixture(t, queue.Options{})
	ctx := context.Background()

	for i := int64(0); i < 4; i++ {
		f.join(t, patient(100+i))
	}

	// token 1 dilayani 4 menit, token 2 dilayani 6 menit
	_, err := f.svc.CallNext(ctx, f.at(), f.provider.ID, f.operator)
	require.NoError(t, err)
	f.clk.Advance(4 * time.Minute)
	_, err = f.svc.CallNext(ctx, f.at(), f.provider.ID, f.operator)
	require.NoError(t, err)
	f.clk.Advance(6 * time.Minute)
	_, err = f.svc.CallNext(ctx, f.at(), f.provider.ID, f.operator)
	require.NoError(t, err)

	f.clk.Advance(1 * time.Minute)
	status, err := f.svc.Status(ctx, f.at(), f.provider.ID, patient(103))
	require.NoError(t, err)

	assert.Equal(t, 5.0, status.AverageConsultationTime)
	assert.Equal(t, 3, *status.CurrentlyServing)
	assert.Equal(t, 0, status.PeopleAhead)
	assert.Equal(t, 4.0, status.RemainingTime)
	assert.Equal(t, 4.0, status.EstimatedWaitMinutes)
}

func TestStatus_RoundsForPresentation(t *testing.T) {
	f := newFixture(t, queue.Options{})
	ctx := context.Background()

	for i := int64(0); i < 3; i++ {
		f.join(t, patient(100+i))
	}
	_, err := f.svc.CallNext(ctx, f.at(), f.provider.ID, f.operator)
	require.NoError(t, err)

	f.clk.Advance(100 * time.Second)
	status, err := f.svc.Status(ctx, f.at(), f.provider.ID, patient(102))
	require.NoError(t, err)

	// 10 - 1.666.. = 8.333..; + 0 * 10
	assert.Equal(t, 1, status.PeopleAhead)
	assert.Equal(t, 8.3, status.RemainingTime)
	assert.Equal(t, 8.3, status.EstimatedWaitMinutes)
}

func TestStatus_NotInQueue(t *testing.T) {
	f := newFixture(t, queue.Options{})
	ctx := context.Background()

	status, err := f.svc.Status(ctx, f.at(), f.provider.ID, patient(100))
	require.NoError(t, err)
	assert.False(t, status.InQueue)
	assert.Nil(t, status.CurrentlyServing)
	assert.Zero(t, status.EstimatedWaitMinutes)

	f.join(t, patient(100))
	_, err = f.svc.Cancel(ctx, f.at(), f.provider.ID, patient(100))
	require.NoError(t, err)

	status, err = f.svc.Status(ctx, f.at(), f.provider.ID, patient(100))
	require.NoError(t, err)
	assert.False(t, status.InQueue)
}

func TestStatus_ServingClient(t *testing.T) {
	f := newFixture(t, queue.Options{})
	ctx := context.Background()

	f.join(t, patient(100))
	_, err := f.svc.CallNext(ctx, f.at(), f.provider.ID, f.operator)
	require.NoError(t, err)

	status, err := f.svc.Status(ctx, f.at(), f.provider.ID, patient(100))
	require.NoError(t, err)
	assert.True(t, status.InQueue)
	assert.Equal(t, models.TokenServing, status.YourStatus)
	assert.Zero(t, status.EstimatedWaitMinutes)
}

func TestStatus_UnknownProvider(t *testing.T) {
	f := newFixture(t, queue.Options{})

	_, err := f.svc.Status(context.Background(), f.at(), 404, patient(100))
	assert.ErrorIs(t, err, apperr.ErrProviderNotFound)
}

func TestBoard(t *testing.T) {
	f := newFixture(t, queue.Options{})
	ctx := context.Background()

	board, err := f.svc.Board(ctx, f.at(), f.provider.ID)
	require.NoError(t, err)
	assert.Nil(t, board.CurrentlyServing)
	assert.Zero(t, board.TotalWaiting)
	assert.Equal(t, "Poli Umum", board.ProviderName)

	for i := int64(0); i < 3; i++ {
		f.join(t, patient(100+i))
	}
	_, err = f.svc.CallNext(ctx, f.at(), f.provider.ID, f.operator)
	require.NoError(t, err)

	board, err = f.svc.Board(ctx, f.at(), f.provider.ID)
	require.NoError(t, err)
	require.NotNil(t, board.CurrentlyServing)
	assert.Equal(t, 1, *board.CurrentlyServing)
	assert.Equal(t, 2, board.TotalWaiting)
	assert.Equal(t, models.Day("2026-03-02"), board.Day)
}
