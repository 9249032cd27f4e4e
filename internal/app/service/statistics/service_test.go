package statistics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/fatflowers/patron/pkg/apperror"
	"github.com/fatflowers/patron/pkg/dateparts"
	"github.com/fatflowers/patron/pkg/types"
)

func newDryRunService(t *testing.T) *Service {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost user=patron dbname=patron sslmode=disable"}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)
	s := New(db, dateparts.MustNew("America/Los_Angeles"), zap.NewNop().Sugar())
	s.now = func() time.Time { return time.Date(2025, 6, 15, 19, 0, 0, 0, time.UTC) }
	return s
}

func toSQL(t *testing.T, s *Service, typ StatisticType, req *StatisticRequest) string {
	t.Helper()
	where, ok := req.GetFilters(typ)
	require.True(t, ok)
	return s.db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		q, err := s.query(tx, typ, where)
		require.NoError(t, err)
		var out []StatisticResponseDataItem
		return q.Find(&out)
	})
}

func TestGetFilters(t *testing.T) {
	req := &StatisticRequest{Filters: []*types.CommonFilter{
		{Field: "campaign_id", Operator: types.CommonFilterOperatorEq, Values: []any{7}},
		{Field: "item_type", Operator: types.CommonFilterOperatorEq, Values: []any{"donation"}},
	}}

	where, ok := req.GetFilters(StatisticTypeDailyRevenue)
	require.True(t, ok)
	require.Len(t, where, 2)
	assert.Equal(t, "orders.campaign_id", where[0].Field)
	assert.Equal(t, "order_item.item_type", where[1].Field)
	assert.Equal(t, "campaign_id", req.Filters[0].Field, "request filters are not rewritten")

	_, ok = req.GetFilters(StatisticTypeDailyNewMembershipCount)
	assert.False(t, ok, "item_type does not apply to memberships")

	where, ok = (&StatisticRequest{Filters: req.Filters[:1]}).GetFilters(StatisticTypeActiveMembershipCount)
	require.True(t, ok)
	assert.Equal(t, "membership.campaign_id", where[0].Field)

	where, ok = (&StatisticRequest{}).GetFilters(StatisticTypeTotalRevenue)
	assert.True(t, ok)
	assert.Empty(t, where)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		req   *StatisticRequest
		field string
	}{
		{"nil", nil, "data_items"},
		{"no items", &StatisticRequest{}, "data_items"},
		{"unknown item", &StatisticRequest{DataItems: []*StatisticDataItem{{ID: "daily_gmv"}}}, "data_items"},
		{"unknown filter", &StatisticRequest{
			DataItems: []*StatisticDataItem{{ID: StatisticTypeDailyRevenue}},
			Filters:   []*types.CommonFilter{{Field: "contact_id", Operator: types.CommonFilterOperatorEq, Values: []any{1}}},
		}, "filters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.validate()
			var ve *apperror.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}

	ok := &StatisticRequest{
		DataItems: []*StatisticDataItem{{ID: StatisticTypeDailyRevenue}, {ID: StatisticTypeActiveMembershipCount}},
		Filters:   []*types.CommonFilter{{Field: "lang", Operator: types.CommonFilterOperatorEq, Values: []any{"en"}}},
	}
	assert.NoError(t, ok.validate())
}

func TestQuerySQL(t *testing.T) {
	s := newDryRunService(t)
	req := &StatisticRequest{Filters: []*types.CommonFilter{
		{Field: "campaign_id", Operator: types.CommonFilterOperatorEq, Values: []any{7}},
	}}

	sql := toSQL(t, s, StatisticTypeDailyRevenue, req)
	assert.Contains(t, sql, "JOIN order_item ON order_item.order_id = orders.id")
	assert.Contains(t, sql, "orders.status = 'paid'")
	assert.Contains(t, sql, `"orders"."campaign_id" = 7`)
	assert.Contains(t, sql, "AT TIME ZONE 'America/Los_Angeles'")
	assert.Contains(t, sql, `GROUP BY "date","order_item"."item_type"`)

	sql = toSQL(t, s, StatisticTypeTotalRevenue, &StatisticRequest{})
	assert.Contains(t, sql, "SUM(order_item.total_cents)")
	assert.NotContains(t, sql, "TO_CHAR")

	sql = toSQL(t, s, StatisticTypeActiveMembershipCount, req)
	assert.Contains(t, sql, `"membership"."campaign_id" = 7`)
	assert.Contains(t, sql, "membership.start_day <=")
	assert.NotContains(t, sql, "orders")
}

func TestGetStatisticSkipsInapplicableItems(t *testing.T) {
	s := newDryRunService(t)
	res, err := s.GetStatistic(context.Background(), &StatisticRequest{
		DataItems: []*StatisticDataItem{{ID: StatisticTypeDailyNewMembershipCount}, {ID: StatisticTypeDailyNewMembershipCount}},
		Filters:   []*types.CommonFilter{{Field: "item_type", Operator: types.CommonFilterOperatorEq, Values: []any{"retail"}}},
	})
	require.NoError(t, err)
	require.Contains(t, res.DataItems, StatisticTypeDailyNewMembershipCount)
	assert.Nil(t, res.DataItems[StatisticTypeDailyNewMembershipCount])
}
