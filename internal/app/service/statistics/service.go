package statistics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/patron/internal/models"
	"github.com/fatflowers/patron/pkg/apperror"
	"github.com/fatflowers/patron/pkg/dateparts"
	"github.com/fatflowers/patron/pkg/logctx"
	"github.com/fatflowers/patron/pkg/types"
)

type StatisticType string

const (
	StatisticTypeDailyPaidOrderCount     StatisticType = "daily_paid_order_count"
	StatisticTypeDailyRevenue            StatisticType = "daily_revenue"
	StatisticTypeTotalRevenue            StatisticType = "total_revenue"
	StatisticTypeDailyNewMembershipCount StatisticType = "daily_new_membership_count"
	StatisticTypeActiveMembershipCount   StatisticType = "active_membership_count"
)

var orderStatistics = []StatisticType{
	StatisticTypeDailyPaidOrderCount,
	StatisticTypeDailyRevenue,
	StatisticTypeTotalRevenue,
}

var membershipStatistics = []StatisticType{
	StatisticTypeDailyNewMembershipCount,
	StatisticTypeActiveMembershipCount,
}

// filterColumns maps a public filter field to its column for each family of
// statistics. A field missing from a family does not apply to it.
var filterColumns = map[string]map[StatisticType]string{
	"campaign_id": columnsFor("campaign_id"),
	"created_at":  columnsFor("created_at"),
	"lang":        columnsFor("lang", orderStatistics...),
	"item_type":   {StatisticTypeDailyPaidOrderCount: "order_item.item_type", StatisticTypeDailyRevenue: "order_item.item_type", StatisticTypeTotalRevenue: "order_item.item_type"},
}

func columnsFor(column string, only ...StatisticType) map[StatisticType]string {
	m := make(map[StatisticType]string)
	for _, t := range orderStatistics {
		m[t] = models.Order{}.TableName() + "." + column
	}
	for _, t := range membershipStatistics {
		m[t] = models.Membership{}.TableName() + "." + column
	}
	if len(only) > 0 {
		for t := range m {
			if !lo.Contains(only, t) {
				delete(m, t)
			}
		}
	}
	return m
}

type StatisticDataItem struct {
	ID StatisticType `json:"id"`
}

type StatisticRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	DataItems []*StatisticDataItem  `json:"data_items"`
}

// GetFilters returns the filters qualified for statisticType. ok is false
// when some filter does not apply to it.
func (r *StatisticRequest) GetFilters(statisticType StatisticType) (types.FiltersAnd, bool) {
	if r == nil || len(r.Filters) == 0 {
		return nil, true
	}
	result := make(types.FiltersAnd, 0, len(r.Filters))
	for _, f := range r.Filters {
		if f == nil {
			continue
		}
		column, ok := filterColumns[f.Field][statisticType]
		if !ok {
			return nil, false
		}
		result = append(result, &types.CommonFilter{Field: column, Operator: f.Operator, Values: f.Values})
	}
	return result, true
}

func (r *StatisticRequest) validate() error {
	if r == nil || len(r.DataItems) == 0 {
		return apperror.Validation("data_items", "required")
	}
	if err := types.ValidateFilters(r.Filters, lo.Keys(filterColumns)...); err != nil {
		return apperror.Validation("filters", err.Error())
	}
	for _, di := range r.DataItems {
		if di == nil || !lo.Contains(orderStatistics, di.ID) && !lo.Contains(membershipStatistics, di.ID) {
			return apperror.Validation("data_items", "unknown statistic")
		}
	}
	return nil
}

type StatisticResponseDataItem struct {
	Date  string `json:"date,omitempty"`
	Label string `json:"label,omitempty"`
	Value int64  `json:"value"`
}

type StatisticResponse struct {
	DataItems map[StatisticType][]StatisticResponseDataItem `json:"data_items"`
}

// Service answers admin statistics queries straight from the ledger tables.
// Days are bucketed in the calendar timezone.
type Service struct {
	db  *gorm.DB
	cal *dateparts.Calendar
	log *zap.SugaredLogger
	now func() time.Time
}

func New(db *gorm.DB, cal *dateparts.Calendar, log *zap.SugaredLogger) *Service {
	return &Service{db: db, cal: cal, log: log, now: time.Now}
}

var Module = fx.Options(
	fx.Provide(New),
)

func (s *Service) day(column string) string {
	return fmt.Sprintf("TO_CHAR(%s AT TIME ZONE '%s', 'YYYY-MM-DD')", column, s.cal.Location().String())
}

func paidOrders(db *gorm.DB) *gorm.DB {
	return db.Table(models.Order{}.TableName()).
		Joins("JOIN order_item ON order_item.order_id = orders.id").
		Where("orders.status = ?", types.OrderStatusPaid)
}

func (s *Service) query(db *gorm.DB, statisticType StatisticType, where types.FiltersAnd) (*gorm.DB, error) {
	cond := clause.Where{Exprs: []clause.Expression{where}}
	switch statisticType {
	case StatisticTypeDailyPaidOrderCount:
		return paidOrders(db).
			Select(s.day("orders.created_at") + " AS date, COUNT(DISTINCT orders.id) AS value").
			Where(cond).
			Group("date").
			Order("date"), nil
	case StatisticTypeDailyRevenue:
		return paidOrders(db).
			Select(s.day("orders.created_at") + " AS date, order_item.item_type AS label, SUM(order_item.total_cents) AS value").
			Where(cond).
			Group("date").
			Group("order_item.item_type").
			Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true}), nil
	case StatisticTypeTotalRevenue:
		return paidOrders(db).
			Select("order_item.item_type AS label, SUM(order_item.total_cents) AS value").
			Where(cond).
			Group("order_item.item_type").
			Order("label"), nil
	case StatisticTypeDailyNewMembershipCount:
		return db.Table(models.Membership{}.TableName()).
			Select(s.day("membership.created_at") + " AS date, COUNT(DISTINCT membership.contact_id) AS value").
			Where(cond).
			Group("date").
			Order("date"), nil
	case StatisticTypeActiveMembershipCount:
		today := s.cal.ToMidnight(s.cal.Today(s.now()))
		return db.Table(models.Membership{}.TableName()).
			Select("COUNT(DISTINCT membership.contact_id) AS value").
			Where(cond).
			Where("membership.start_day <= ? AND membership.end_day >= ?", today, today), nil
	default:
		return nil, fmt.Errorf("invalid data item id: %s", statisticType)
	}
}

func (s *Service) getStatistic(ctx context.Context, request *StatisticRequest, dataItem *StatisticDataItem) ([]StatisticResponseDataItem, error) {
	where, ok := request.GetFilters(dataItem.ID)
	if !ok {
		return nil, nil
	}
	q, err := s.query(s.db.WithContext(ctx), dataItem.ID, where)
	if err != nil {
		return nil, err
	}
	var results []StatisticResponseDataItem
	if err := q.Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", dataItem.ID, err)
	}
	return results, nil
}

// GetStatistic runs every requested data item concurrently. A data item that
// one of the filters does not apply to comes back empty.
func (s *Service) GetStatistic(ctx context.Context, request *StatisticRequest) (*StatisticResponse, error) {
	if err := request.validate(); err != nil {
		return nil, err
	}
	items := lo.UniqBy(request.DataItems, func(di *StatisticDataItem) StatisticType { return di.ID })

	var wg sync.WaitGroup
	errChan := make(chan error, len(items))
	resChan := make(chan *lo.Entry[StatisticType, []StatisticResponseDataItem], len(items))

	for _, item := range items {
		wg.Add(1)
		go func(di *StatisticDataItem) {
			defer wg.Done()
			res, err := s.getStatistic(ctx, request, di)
			if err != nil {
				errChan <- err
				return
			}
			resChan <- &lo.Entry[StatisticType, []StatisticResponseDataItem]{Key: di.ID, Value: res}
		}(item)
	}

	wg.Wait()
	close(errChan)
	close(resChan)

	if err := <-errChan; err != nil {
		logctx.FromCtx(ctx, s.log).Errorw("statistics_query_failed", "error", err)
		return nil, err
	}
	results := make(map[StatisticType][]StatisticResponseDataItem, len(items))
	for entry := range resChan {
		results[entry.Key] = entry.Value
	}
	return &StatisticResponse{DataItems: results}, nil
}
