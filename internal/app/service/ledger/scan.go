package ledger

import (
	"context"
	"fmt"

	"github.com/fatflowers/patron/internal/app/repository"
	"github.com/fatflowers/patron/internal/models"
	"github.com/fatflowers/patron/pkg/apperror"
	"github.com/fatflowers/patron/pkg/types"
	"github.com/samber/lo"
)

var scanColumns = []string{"id", "public_id", "status", "contact_id", "campaign_id", "plan_id", "lang", "total_cents", "created_at", "updated_at"}

type ScanOrdersRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

type ScanOrdersResponse struct {
	Items []*models.Order `json:"items"`
	Total int64           `json:"total"`
}

// ScanOrders implements paginated admin listing with filters.
func (l *Ledger) ScanOrders(ctx context.Context, req *ScanOrdersRequest) (*ScanOrdersResponse, error) {
	if req == nil {
		return nil, apperror.Validation("request", "required")
	}
	if err := types.ValidateFilters(req.Filters, scanColumns...); err != nil {
		return nil, apperror.Validation("filters", err.Error())
	}
	if req.SortBy != "" && !lo.Contains(scanColumns, req.SortBy) {
		return nil, apperror.Validationf("sort_by", "unsupported column %q", req.SortBy)
	}
	if req.Size <= 0 {
		req.Size = 10
	}
	req.Size = min(req.Size, 200)
	req.From = max(req.From, 0)

	rows, total, err := l.repo.ScanOrders(ctx, &repository.OrderScan{
		Filters:   req.Filters,
		From:      req.From,
		Size:      req.Size,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan orders: %w", err)
	}
	return &ScanOrdersResponse{Items: rows, Total: total}, nil
}
