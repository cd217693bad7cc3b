package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"credit-api/internal/apperror"
	"credit-api/internal/model"
	"credit-api/pkg/pagination"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type productFixture struct {
	products *fakeProductRepo
	audit    *fakeAuditRepo
	events   *recordingPublisher
	svc      ProductService
}

func newProductFixture() *productFixture {
	log, _ := test.NewNullLogger()
	f := &productFixture{
		products: newFakeProductRepo(),
		audit:    &fakeAuditRepo{},
		events:   &recordingPublisher{},
	}
	f.svc = NewProductService(f.products, f.audit, fakeTx{products: f.products}, f.events, log)
	return f
}

func productRequest(code, description, price string) ProductRequest {
	return ProductRequest{Code: code, Description: description, Price: decimal.NewNullDecimal(decimal.RequireFromString(price))}
}

func TestProductSaveCreatesThenUpdates(t *testing.T) {
	f := newProductFixture()
	ctx := context.Background()

	created, err := f.svc.Save(ctx, "admin", productRequest("1234", "Produto XYZ", "200"))
	require.NoError(t, err)
	assert.True(t, created.Created)
	assert.Equal(t, "200.00", created.Price)

	updated, err := f.svc.Save(ctx, "admin", productRequest("1234", "Produto novo", "150.5"))
	require.NoError(t, err)
	assert.False(t, updated.Created)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Produto novo", f.products.products["1234"].Description)
	assert.Equal(t, "150.50", f.products.products["1234"].Price.StringFixed(2))

	require.Len(t, f.audit.entries, 2)
	assert.Equal(t, model.ActionCreateProduct, f.audit.entries[0].Action)
	assert.Equal(t, model.ActionUpdateProduct, f.audit.entries[1].Action)
	assert.Equal(t, "admin", f.audit.entries[0].Actor)

	var details map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(f.audit.entries[1].Details), &details))
	assert.Equal(t, "Produto novo", details["description"])

	require.Len(t, f.events.events, 2)
	assert.Equal(t, EventProductSaved, f.events.events[1].name)
}

func TestProductUpdateRequiresExisting(t *testing.T) {
	f := newProductFixture()

	_, err := f.svc.Update(context.Background(), "", productRequest("9876", "Nova descrição", "100"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
	assert.Empty(t, f.products.products)
	assert.Empty(t, f.audit.entries)
}

func TestProductUpdateExisting(t *testing.T) {
	f := newProductFixture()
	ctx := context.Background()
	_, err := f.svc.Save(ctx, "", productRequest("1234", "Produto antigo", "50"))
	require.NoError(t, err)

	resp, err := f.svc.Update(ctx, "", productRequest("1234", "Nova descrição", "100"))
	require.NoError(t, err)
	assert.Equal(t, "Nova descrição", resp.Description)
	assert.Equal(t, "100.00", resp.Price)
}

func TestProductValidation(t *testing.T) {
	f := newProductFixture()
	ctx := context.Background()

	_, err := f.svc.Save(ctx, "", productRequest(" ", "Descrição inválida", "50"))
	assert.Equal(t, apperror.KindInvalidArgument, apperror.KindOf(err))

	_, err = f.svc.Save(ctx, "", productRequest("1", "", "50"))
	assert.Equal(t, apperror.KindInvalidArgument, apperror.KindOf(err))

	_, err = f.svc.Save(ctx, "", productRequest("1", "x", "-1"))
	assert.Equal(t, apperror.KindInvalidArgument, apperror.KindOf(err))

	_, err = f.svc.Save(ctx, "", ProductRequest{Code: "1", Description: "x"})
	require.Error(t, err)
	assert.Equal(t, apperror.KindInvalidArgument, apperror.KindOf(err))
	assert.Contains(t, err.Error(), "price is required")

	assert.Empty(t, f.products.products)
	assert.Empty(t, f.audit.entries)
}

func TestProductAuditFailureRollsBack(t *testing.T) {
	f := newProductFixture()
	f.audit.logErr = errors.New("audit table locked")

	_, err := f.svc.Save(context.Background(), "", productRequest("1234", "Produto XYZ", "200"))
	require.Error(t, err)
	assert.Equal(t, apperror.KindStoreUnavailable, apperror.KindOf(err))
	assert.Empty(t, f.products.products)
	assert.Empty(t, f.events.events)
}

func TestProductList(t *testing.T) {
	f := newProductFixture()
	ctx := context.Background()
	for _, code := range []string{"003", "001", "002"} {
		_, err := f.svc.Save(ctx, "", productRequest(code, "Produto "+code, "10"))
		require.NoError(t, err)
	}

	items, total, err := f.svc.List(ctx, pagination.New(1, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"001", "002", "003"}, []string{items[0].Code, items[1].Code, items[2].Code})

	f.products.listErr = errors.New("gone")
	_, _, err = f.svc.List(ctx, pagination.New(1, 20))
	assert.True(t, errors.Is(err, apperror.ErrStoreUnavailable))
}

func TestProductDelete(t *testing.T) {
	f := newProductFixture()
	ctx := context.Background()
	_, err := f.svc.Save(ctx, "", productRequest("001", "Produto de teste", "10"))
	require.NoError(t, err)

	deleted, err := f.svc.Delete(ctx, "admin", "001")
	require.NoError(t, err)
	assert.Equal(t, "001", deleted.Code)
	assert.Equal(t, "Produto de teste", deleted.Description)
	assert.Equal(t, "10.00", deleted.Price)
	assert.NotContains(t, f.products.products, "001")
	assert.Equal(t, model.ActionDeleteProduct, f.audit.entries[len(f.audit.entries)-1].Action)
	assert.Equal(t, EventProductDeleted, f.events.events[len(f.events.events)-1].name)

	_, err = f.svc.Delete(ctx, "admin", "999")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestProductDeleteStoreFailure(t *testing.T) {
	f := newProductFixture()
	ctx := context.Background()
	_, err := f.svc.Save(ctx, "", productRequest("001", "Produto de teste", "10"))
	require.NoError(t, err)

	f.products.deleteErr = errors.New("lock timeout")
	_, err = f.svc.Delete(ctx, "", "001")
	assert.Equal(t, apperror.KindStoreUnavailable, apperror.KindOf(err))
	assert.Contains(t, f.products.products, "001")
}

func TestAuditServiceLabelsSystemActor(t *testing.T) {
	f := newProductFixture()
	ctx := context.Background()
	_, err := f.svc.Save(ctx, "", productRequest("001", "Produto", "10"))
	require.NoError(t, err)
	_, err = f.svc.Save(ctx, "alice", productRequest("002", "Produto", "10"))
	require.NoError(t, err)

	logs, total, err := NewAuditService(f.audit).GetAuditLogs(ctx, pagination.New(1, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, "System", logs[0].Actor)
	assert.Equal(t, "alice", logs[1].Actor)
}
