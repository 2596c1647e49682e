package service

import (
	"context"

	"libraryhub/internal/microservices/http-api/dto"
	"libraryhub/internal/microservices/http-api/models"
	"libraryhub/internal/microservices/http-api/repository"
)

type ReportService interface {
	Payments(ctx context.Context, filter dto.ReportFilter) (*dto.PaymentReport, error)
}

type reportService struct {
	repo repository.ReportRepository
}

func NewReportService(repo repository.ReportRepository) ReportService {
	return &reportService{repo: repo}
}

func (s *reportService) Payments(ctx context.Context, filter dto.ReportFilter) (*dto.PaymentReport, error) {
	if err := filter.Validate(); err != nil {
		return nil, invalid("%v", err)
	}
	rows, err := s.repo.PaymentSummary(ctx, filter)
	if err != nil {
		return nil, err
	}
	report := &dto.PaymentReport{
		From:     filter.From,
		To:       filter.To,
		Provider: filter.Provider,
		Rows:     rows,
	}
	for _, r := range rows {
		if r.Status == models.TxSucceeded {
			report.TotalVND += r.TotalVND
		}
	}
	return report, nil
}
