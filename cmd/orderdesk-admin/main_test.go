package main

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderdesk/orderdesk/internal/domain/model"
)

func TestPrintOrdersReportIncludesAllStatusesAndTotal(t *testing.T) {
	var buf bytes.Buffer
	counts := map[model.OrderStatus]int{
		model.OrderStatusPending: 3,
		model.OrderStatusPaid:    2,
	}
	orders := []*model.OrderWithCustomer{
		{
			Order: model.Order{
				Number:     "ORD-1001",
				Status:     model.OrderStatusPaid,
				TotalCents: 129900,
				Currency:   "USD",
				PlacedAt:   time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
			},
			CustomerName: "Acme Corp",
		},
	}

	require.NoError(t, printOrdersReport(&buf, counts, orders))

	out := buf.String()
	require.Contains(t, out, "Orders by status")
	for _, status := range model.OrderStatuses() {
		require.Contains(t, out, string(status))
	}
	require.Contains(t, out, "total")
	require.Contains(t, out, "5")
	require.Contains(t, out, "ORD-1001")
	require.Contains(t, out, "Acme Corp")
	require.Contains(t, out, "1,299.00 USD")
}

func TestPrintOrdersReportEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printOrdersReport(&buf, map[model.OrderStatus]int{}, nil))
	assert.Contains(t, buf.String(), "Recent orders (0)")
	assert.Contains(t, buf.String(), "none")
}

func TestParseOrdersReportFlags(t *testing.T) {
	opts, err := parseOrdersReportFlags([]string{"--limit", "5", "--status", "paid"})
	require.NoError(t, err)
	assert.Equal(t, 5, opts.Limit)
	assert.Equal(t, "paid", opts.Status)

	_, err = parseOrdersReportFlags([]string{"--status", "bogus"})
	assert.Error(t, err)

	_, err = parseOrdersReportFlags([]string{"--limit", "0"})
	assert.Error(t, err)
}

func TestRunOrdersReportRejectsBadFlagsBeforeDialing(t *testing.T) {
	cmdCtx := &commandContext{Ctx: context.Background(), Logger: slog.Default()}
	err := runOrdersReport(cmdCtx, []string{"--limit", "0"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--limit")
}

func TestParseClearCacheFlags(t *testing.T) {
	opts, err := parseClearCacheFlags([]string{"--dry-run", "--match", "orderdesk:stats:*"})
	require.NoError(t, err)
	assert.True(t, opts.DryRun)
	assert.Equal(t, "orderdesk:stats:*", opts.Match)

	_, err = parseClearCacheFlags([]string{"--match", ""})
	assert.Error(t, err)
}

func TestIsLikelyRemoteHost(t *testing.T) {
	assert.False(t, isLikelyRemoteHost("localhost"))
	assert.False(t, isLikelyRemoteHost("127.0.0.1"))
	assert.False(t, isLikelyRemoteHost("postgres"))
	assert.False(t, isLikelyRemoteHost("10.0.0.5"))
	assert.True(t, isLikelyRemoteHost("db.prod.example.com"))
	assert.True(t, isLikelyRemoteHost("203.0.113.7"))
}
