package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"credit-api/internal/model"
	"credit-api/pkg/pagination"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestClientFindByTaxID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewClientRepository(db)
	id := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "clients" WHERE tax_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tax_id", "name"}).AddRow(id, "000.000.000-00", "João Silva"))

	client, err := repo.FindByTaxID(context.Background(), "000.000.000-00")
	require.NoError(t, err)
	assert.Equal(t, id, client.ID)
	assert.Equal(t, "João Silva", client.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClientFindByTaxIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewClientRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "clients" WHERE tax_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tax_id", "name"}))

	_, err := repo.FindByTaxID(context.Background(), "999")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClientFindByTaxIDStoreError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewClientRepository(db)
	boom := errors.New("connection reset")

	mock.ExpectQuery(`SELECT \* FROM "clients"`).WillReturnError(boom)

	_, err := repo.FindByTaxID(context.Background(), "999")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(err, boom))
}

func TestClientCreateIfAbsent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewClientRepository(db)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "clients" .*ON CONFLICT \("tax_id"\) DO NOTHING`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id))
	mock.ExpectCommit()

	client := &model.Client{TaxID: "000.000.000-00", Name: "João Silva"}
	created, err := repo.CreateIfAbsent(context.Background(), client)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, id, client.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClientCreateIfAbsentConflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewClientRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "clients" .*ON CONFLICT \("tax_id"\) DO NOTHING`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	created, err := repo.CreateIfAbsent(context.Background(), &model.Client{TaxID: "000.000.000-00", Name: "Other"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsultationCountByTaxIDSince(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewConsultationRepository(db)
	since := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "consultations" WHERE client_tax_id = \$1 AND created_at >= \$2`).
		WithArgs("000.000.000-00", since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountByTaxIDSince(context.Background(), "000.000.000-00", since)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductFindByCodeForUpdateNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "products" WHERE code = \$1 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code"}))

	_, err := repo.FindByCodeForUpdate(context.Background(), "9876")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClientListCountsConsultations(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewClientRepository(db)
	id := uuid.New()
	createdAt := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "clients"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`SELECT clients\.\*, \(SELECT COUNT\(\*\) FROM consultations WHERE consultations\.client_tax_id = clients\.tax_id\) AS consultation_count FROM "clients" ORDER BY clients\.created_at desc LIMIT \$1 OFFSET \$2`).
		WithArgs(2, 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tax_id", "name", "created_at", "updated_at", "consultation_count"}).
			AddRow(id, "000.000.000-00", "João Silva", createdAt, createdAt, 4))

	clients, total, err := repo.List(context.Background(), pagination.New(2, 2))
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, clients, 1)
	assert.Equal(t, id, clients[0].ID)
	assert.Equal(t, "João Silva", clients[0].Name)
	assert.Equal(t, int64(4), clients[0].ConsultationCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsultationListByTaxIDNewestFirst(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewConsultationRepository(db)
	id := uuid.New()
	createdAt := time.Date(2026, 10, 17, 14, 30, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "consultations" WHERE client_tax_id = \$1`).
		WithArgs("000.000.000-00").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(21))
	mock.ExpectQuery(`SELECT \* FROM "consultations" WHERE client_tax_id = \$1 ORDER BY created_at desc LIMIT \$2 OFFSET \$3`).
		WithArgs("000.000.000-00", 20, 20).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "client_tax_id", "amount", "installment_count", "interest_rate",
			"total_amount", "first_installment", "installments", "created_at",
		}).AddRow(id, "000.000.000-00", "101.75", 3, "0.0250", "106.90", "35.64", "35.64,35.63,35.63", createdAt))

	items, total, err := repo.ListByTaxID(context.Background(), "000.000.000-00", pagination.New(2, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(21), total)
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0].ID)
	assert.Equal(t, "106.90", items[0].TotalAmount.StringFixed(2))
	require.Len(t, items[0].Installments, 3)
	assert.Equal(t, "35.64", items[0].Installments[0].StringFixed(2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductUpdateWritesByPrimaryKey(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)
	product := &model.Product{
		ID:          uuid.New(),
		Code:        "1234",
		Description: "Produto XYZ",
		Price:       decimal.RequireFromString("150.50"),
	}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "products" SET "code"=\$1,"description"=\$2,"price"=\$3,.* WHERE "id" = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Update(context.Background(), product))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductDeleteByCode(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "products" WHERE code = \$1`).
		WithArgs("1234").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteByCode(context.Background(), "1234"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductListOrdersByCode(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewProductRepository(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "products"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`SELECT \* FROM "products" ORDER BY code asc LIMIT \$1`).
		WithArgs(20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "description", "price"}).
			AddRow(uuid.New(), "0001", "Teclado", "10.00").
			AddRow(uuid.New(), "0002", "Mouse", "5.50"))

	products, total, err := repo.List(context.Background(), pagination.New(1, 20))
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, products, 2)
	assert.Equal(t, "0001", products[0].Code)
	assert.Equal(t, "5.50", products[1].Price.StringFixed(2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInTxCommitsAndSharesTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	txManager := NewTransactionManager(db)
	repo := NewProductRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "products" WHERE code = \$1`).
		WithArgs("001").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := txManager.RunInTx(context.Background(), func(txCtx context.Context) error {
		return repo.DeleteByCode(txCtx, "001")
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInTxRollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	txManager := NewTransactionManager(db)
	boom := errors.New("audit write failed")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := txManager.RunInTx(context.Background(), func(txCtx context.Context) error {
		return boom
	})
	assert.True(t, errors.Is(err, boom))
	assert.NoError(t, mock.ExpectationsWereMet())
}
