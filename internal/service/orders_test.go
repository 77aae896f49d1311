package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/orderdesk/orderdesk/internal/domain/model"
	"github.com/orderdesk/orderdesk/internal/mocks"
)

func orderWithMetadata(id string, metadata map[string]any) *model.OrderWithCustomer {
	return &model.OrderWithCustomer{
		Order: model.Order{
			ID:       id,
			Number:   "ORD-" + id,
			Status:   model.OrderStatusPending,
			Currency: "USD",
			Metadata: metadata,
		},
		CustomerName: "Acme",
	}
}

func TestOrderService_List_NoMetadataQuery(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mocks.NewMockOrderRepository(ctrl)
	svc := NewOrderService(OrderServiceOptions{Orders: repo})

	opts := OrdersPageOptions{OrdersListOptions: model.OrdersListOptions{Limit: 10}}
	items := []*model.OrderWithCustomer{orderWithMetadata("1", nil)}
	repo.EXPECT().List(gomock.Any(), opts.OrdersListOptions).Return(items, nil)
	repo.EXPECT().Count(gomock.Any(), opts.OrdersListOptions).Return(42, nil)

	page, err := svc.List(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, items, page.Items)
	assert.Equal(t, 42, page.Total)
}

func TestOrderService_List_MetadataQuery(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mocks.NewMockOrderRepository(ctrl)
	svc := NewOrderService(OrderServiceOptions{Orders: repo})

	candidates := []*model.OrderWithCustomer{
		orderWithMetadata("1", map[string]any{"warehouse": "east"}),
		orderWithMetadata("2", map[string]any{"warehouse": "west"}),
		orderWithMetadata("3", map[string]any{"warehouse": "east", "rush": true}),
		orderWithMetadata("4", nil),
	}
	// scan uses the cap, not the requested page size
	repo.EXPECT().List(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, opts model.OrdersListOptions) ([]*model.OrderWithCustomer, error) {
			assert.Equal(t, metadataScanCap, opts.Limit)
			assert.Equal(t, 0, opts.Offset)
			return candidates, nil
		})

	page, err := svc.List(context.Background(), OrdersPageOptions{
		OrdersListOptions: model.OrdersListOptions{Limit: 10},
		Metadata:          `warehouse == 'east'`,
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "1", page.Items[0].ID)
	assert.Equal(t, "3", page.Items[1].ID)
	assert.Equal(t, 2, page.Total)
}

func TestOrderService_List_MetadataQuery_Paging(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mocks.NewMockOrderRepository(ctrl)
	svc := NewOrderService(OrderServiceOptions{Orders: repo})

	var candidates []*model.OrderWithCustomer
	for _, id := range []string{"1", "2", "3", "4", "5"} {
		candidates = append(candidates, orderWithMetadata(id, map[string]any{"rush": true}))
	}
	repo.EXPECT().List(gomock.Any(), gomock.Any()).Return(candidates, nil).Times(2)

	page, err := svc.List(context.Background(), OrdersPageOptions{
		OrdersListOptions: model.OrdersListOptions{Limit: 2, Offset: 2},
		Metadata:          "rush",
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "3", page.Items[0].ID)
	assert.Equal(t, "4", page.Items[1].ID)
	assert.Equal(t, 5, page.Total)

	// offset past the end returns an empty page with the right total
	page, err = svc.List(context.Background(), OrdersPageOptions{
		OrdersListOptions: model.OrdersListOptions{Limit: 2, Offset: 10},
		Metadata:          "rush",
	})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 5, page.Total)
}

func TestOrderService_List_MetadataQuery_Invalid(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mocks.NewMockOrderRepository(ctrl)
	svc := NewOrderService(OrderServiceOptions{Orders: repo})

	_, err := svc.List(context.Background(), OrdersPageOptions{Metadata: "warehouse =="})
	assert.ErrorIs(t, err, ErrInvalidMetadataQuery)
}

func TestMetadataMatches(t *testing.T) {
	tests := []struct {
		name     string
		expr     string
		metadata map[string]any
		want     bool
	}{
		{"equality match", `warehouse == 'east'`, map[string]any{"warehouse": "east"}, true},
		{"equality miss", `warehouse == 'east'`, map[string]any{"warehouse": "west"}, false},
		{"missing key", `warehouse`, map[string]any{}, false},
		{"nil metadata", `warehouse`, nil, false},
		{"bool true", `rush`, map[string]any{"rush": true}, true},
		{"bool false", `rush`, map[string]any{"rush": false}, false},
		{"non-empty string", `carrier`, map[string]any{"carrier": "ups"}, true},
		{"empty string", `carrier`, map[string]any{"carrier": ""}, false},
		{"non-empty list", `tags`, map[string]any{"tags": []any{"rush"}}, true},
		{"empty list", `tags`, map[string]any{"tags": []any{}}, false},
		{"number is truthy", `pallets`, map[string]any{"pallets": 4}, true},
		{"contains function", `contains(tags, 'rush')`, map[string]any{"tags": []any{"rush", "fragile"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := metadataMatches(tt.expr, tt.metadata)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOrderService_StatusCounts_CacheMissAndHit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mocks.NewMockOrderRepository(ctrl)
	cache := mocks.NewMockCacheRepository(ctrl)
	svc := NewOrderService(OrderServiceOptions{Orders: repo, Cache: cache})
	ctx := context.Background()

	// miss: hit the repo once per status and store the result
	cache.EXPECT().Get(gomock.Any(), statusCountsCacheKey).Return(nil, nil)
	repo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(3, nil).Times(len(model.OrderStatuses()))
	var stored []byte
	cache.EXPECT().Set(gomock.Any(), statusCountsCacheKey, gomock.Any(), statusCountsCacheTTL).DoAndReturn(
		func(_ context.Context, _ string, data []byte, _ any) error {
			stored = data
			return nil
		})

	counts, err := svc.StatusCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, counts[model.OrderStatusPending])
	assert.Len(t, counts, len(model.OrderStatuses()))

	// hit: no repo calls
	cache.EXPECT().Get(gomock.Any(), statusCountsCacheKey).Return(stored, nil)
	counts, err = svc.StatusCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, counts[model.OrderStatusShipped])
}

func TestOrderService_StatusCounts_NoCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mocks.NewMockOrderRepository(ctrl)
	svc := NewOrderService(OrderServiceOptions{Orders: repo})

	repo.EXPECT().Count(gomock.Any(), gomock.Any()).Return(1, nil).Times(len(model.OrderStatuses()))

	counts, err := svc.StatusCounts(context.Background())
	require.NoError(t, err)
	assert.Len(t, counts, len(model.OrderStatuses()))
}

func TestOrderService_UpdateStatus_InvalidatesCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mocks.NewMockOrderRepository(ctrl)
	cache := mocks.NewMockCacheRepository(ctrl)
	svc := NewOrderService(OrderServiceOptions{Orders: repo, Cache: cache})

	updated := &model.Order{ID: "1", Status: model.OrderStatusPaid}
	repo.EXPECT().UpdateStatus(gomock.Any(), "1", model.UpdateOrderStatusRequest{Status: model.OrderStatusPaid}).Return(updated, nil)
	cache.EXPECT().Delete(gomock.Any(), statusCountsCacheKey).Return(true, nil)

	o, err := svc.UpdateStatus(context.Background(), "1", model.OrderStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, o.Status)
}

func TestOrderService_Delete_InvalidatesCacheOnlyWhenDeleted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mocks.NewMockOrderRepository(ctrl)
	cache := mocks.NewMockCacheRepository(ctrl)
	svc := NewOrderService(OrderServiceOptions{Orders: repo, Cache: cache})
	ctx := context.Background()

	repo.EXPECT().Delete(gomock.Any(), "1").Return(true, nil)
	cache.EXPECT().Delete(gomock.Any(), statusCountsCacheKey).Return(true, nil)
	ok, err := svc.Delete(ctx, "1")
	require.NoError(t, err)
	assert.True(t, ok)

	// nothing deleted: the cache stays
	repo.EXPECT().Delete(gomock.Any(), "2").Return(false, nil)
	ok, err = svc.Delete(ctx, "2")
	require.NoError(t, err)
	assert.False(t, ok)
}
