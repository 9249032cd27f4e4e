package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

func TestTableNames(t *testing.T) {
	want := []string{
		"contact", "campaign", "membership_plan", "membership", "orders", "order_item",
		"transaction", "email_template", "email_send", "topic", "subscription", "setting",
		"processor_event_log",
	}
	all := All()
	require.Len(t, all, len(want))
	for i, m := range all {
		tabler, ok := m.(schema.Tabler)
		require.True(t, ok, "%T", m)
		assert.Equal(t, want[i], tabler.TableName())
	}
}

func TestSubscriptionKey(t *testing.T) {
	assert.Equal(t, "12:3", SubscriptionKey(12, 3))
}
