package service

import (
	"context"

	"prizewheel/models"
)

// PrizeReportLine compares the observed share of a label with its configured weight
type PrizeReportLine struct {
	Prize          string  `json:"prize"`
	Count          int64   `json:"count"`
	ObservedShare  float64 `json:"observed_share"`
	ExpectedWeight float64 `json:"expected_weight"`
}

// PrizeReport is the audit log tally over the whole campaign
type PrizeReport struct {
	Total int64              `json:"total"`
	Lines []*PrizeReportLine `json:"lines"`
}

// reportService implements the ReportService interface
type reportService struct {
	spinEvents SpinEventRepository
	table      models.PrizeTable
}

// NewReportService creates a new report service
func NewReportService(spinEvents SpinEventRepository, table models.PrizeTable) ReportService {
	return &reportService{
		spinEvents: spinEvents,
		table:      table,
	}
}

// PrizeReport lists every configured label in table order, followed by any
// recorded label that is no longer in the table
func (s *reportService) PrizeReport(ctx context.Context) (*PrizeReport, error) {
	tallies, err := s.spinEvents.TallyByPrize(ctx)
	if err != nil {
		return nil, newStorageError("tally spin events", err)
	}

	counts := make(map[string]int64, len(tallies))
	var total int64
	for _, tally := range tallies {
		counts[tally.Prize] = tally.Count
		total += tally.Count
	}

	report := &PrizeReport{Total: total}
	for _, label := range s.table.Labels() {
		report.Lines = append(report.Lines, newReportLine(label, counts[label], total, s.table.Weight(label)))
		delete(counts, label)
	}
	for _, tally := range tallies {
		if count, ok := counts[tally.Prize]; ok {
			report.Lines = append(report.Lines, newReportLine(tally.Prize, count, total, 0))
		}
	}

	return report, nil
}

// ParticipantEvents returns the newest spin events of a participant
func (s *reportService) ParticipantEvents(ctx context.Context, identity string, limit int) ([]*models.SpinEvent, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	spinEvents, err := s.spinEvents.ListByIdentity(ctx, models.NormalizeIdentity(identity), limit)
	if err != nil {
		return nil, newStorageError("list spin events", err)
	}
	return spinEvents, nil
}

func newReportLine(prize string, count, total int64, weight float64) *PrizeReportLine {
	line := &PrizeReportLine{
		Prize:          prize,
		Count:          count,
		ExpectedWeight: weight,
	}
	if total > 0 {
		line.ObservedShare = float64(count) / float64(total)
	}
	return line
}
