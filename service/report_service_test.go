package service

import (
	"context"
	"errors"
	"testing"

	"prizewheel/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportService_PrizeReport(t *testing.T) {
	ctx := context.Background()
	repo := new(MockSpinEventRepository)

	repo.On("TallyByPrize", ctx).Return([]*models.PrizeTally{
		{Prize: "DETERGENTE", Count: 3},
		{Prize: "RETIRED PRIZE", Count: 1},
		{Prize: "REGALO SORPRESA", Count: 4},
	}, nil)

	svc := NewReportService(repo, models.DefaultPrizeTable)
	report, err := svc.PrizeReport(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(8), report.Total)
	require.Len(t, report.Lines, 4)

	assert.Equal(t, "ELECTROMENOR", report.Lines[0].Prize)
	assert.Equal(t, int64(0), report.Lines[0].Count)
	assert.InDelta(t, 1.0/6.0, report.Lines[0].ExpectedWeight, 1e-9)

	assert.Equal(t, "DETERGENTE", report.Lines[1].Prize)
	assert.InDelta(t, 3.0/8.0, report.Lines[1].ObservedShare, 1e-9)
	assert.InDelta(t, 2.0/6.0, report.Lines[1].ExpectedWeight, 1e-9)

	assert.Equal(t, "REGALO SORPRESA", report.Lines[2].Prize)
	assert.InDelta(t, 0.5, report.Lines[2].ExpectedWeight, 1e-9)

	assert.Equal(t, "RETIRED PRIZE", report.Lines[3].Prize)
	assert.Equal(t, 0.0, report.Lines[3].ExpectedWeight)
}

func TestReportService_PrizeReport_StorageError(t *testing.T) {
	ctx := context.Background()
	repo := new(MockSpinEventRepository)
	repo.On("TallyByPrize", ctx).Return(nil, errors.New("down"))

	_, err := NewReportService(repo, models.DefaultPrizeTable).PrizeReport(ctx)
	assert.True(t, IsStorageError(err))
}

func TestReportService_ParticipantEvents_ClampsLimit(t *testing.T) {
	ctx := context.Background()
	repo := new(MockSpinEventRepository)
	repo.On("ListByIdentity", ctx, "ana@x.com", 100).Return([]*models.SpinEvent{{ID: 1, Identity: "ana@x.com"}}, nil)

	spinEvents, err := NewReportService(repo, models.DefaultPrizeTable).ParticipantEvents(ctx, "Ana@x.com", 0)
	require.NoError(t, err)
	assert.Len(t, spinEvents, 1)
	repo.AssertExpectations(t)
}
