package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditRecordAndList(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuditService(db)
	ctx := context.Background()

	svc.Record(ctx, testActor(), "order.status_update", "order", "1",
		"Order status changed from pending to paid",
		map[string]any{"old_status": "pending", "new_status": "paid"}, true, "")
	svc.Record(ctx, testActor(), "order.refund", "order", "1",
		"Refund rejected by payment gateway", nil, false, "gateway unavailable")

	entries, total, err := svc.List(ctx, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, entries, 2)

	// Newest first.
	assert.Equal(t, "order.refund", entries[0].Action)
	assert.False(t, entries[0].Success)
	assert.Equal(t, "gateway unavailable", entries[0].ErrorMessage)

	assert.Equal(t, "order.status_update", entries[1].Action)
	assert.True(t, entries[1].Success)
	assert.Contains(t, string(entries[1].Metadata), "new_status")
	assert.Equal(t, "127.0.0.1", entries[1].IPAddress)
}

func TestAuditListPagination(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuditService(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		svc.Record(ctx, testActor(), "product.update", "product", fmt.Sprint(i), "Product updated", nil, true, "")
	}

	page, total, err := svc.List(ctx, 2, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, page, 2)
}
