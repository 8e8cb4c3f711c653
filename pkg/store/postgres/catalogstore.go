package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/dcnsakthi/intellica/pkg/models"
	"github.com/dcnsakthi/intellica/pkg/store"
)

// NewPostgresCatalogStore returns a new PostgresCatalogStore. Use this to correctly
// initialize the store.
func NewPostgresCatalogStore(
	appState *models.AppState,
	client *bun.DB,
) (*PostgresCatalogStore, error) {
	if appState == nil {
		return nil, store.NewStorageError("nil appState received", nil)
	}

	pcs := &PostgresCatalogStore{
		BaseCatalogStore: store.BaseCatalogStore[*bun.DB]{Client: client},
		appState:         appState,
	}

	err := pcs.OnStart(context.Background())
	if err != nil {
		return nil, store.NewStorageError("failed to run OnStart", err)
	}
	return pcs, nil
}

// Force compiler to validate that PostgresCatalogStore implements the CatalogStore interface.
var _ models.CatalogStore = &PostgresCatalogStore{}

type PostgresCatalogStore struct {
	store.BaseCatalogStore[*bun.DB]
	appState *models.AppState
}

func (pcs *PostgresCatalogStore) OnStart(ctx context.Context) error {
	err := CreateSchema(ctx, pcs.appState, pcs.Client)
	if err != nil {
		return store.NewStorageError("failed to ensure postgres schema setup", err)
	}

	return nil
}

func (pcs *PostgresCatalogStore) PutProducts(
	ctx context.Context,
	products []models.Product,
) ([]models.Product, error) {
	return putProducts(ctx, pcs.Client, products)
}

func (pcs *PostgresCatalogStore) GetProduct(
	ctx context.Context,
	productID string,
) (*models.Product, error) {
	return getProduct(ctx, pcs.Client, productID)
}

func (pcs *PostgresCatalogStore) GetProductEmbeddings(
	ctx context.Context,
) ([]models.Product, error) {
	return getProductEmbeddings(ctx, pcs.Client)
}

func (pcs *PostgresCatalogStore) GetProductsByCategory(
	ctx context.Context,
	category string,
	excludeID string,
	price float64,
	limit int,
) ([]models.Product, error) {
	return getProductsByCategory(ctx, pcs.Client, category, excludeID, price, limit)
}

func (pcs *PostgresCatalogStore) ListProducts(
	ctx context.Context,
	cursor int64,
	limit int,
) ([]models.Product, error) {
	return listProducts(ctx, pcs.Client, cursor, limit)
}

func (pcs *PostgresCatalogStore) SearchProductsText(
	ctx context.Context,
	query string,
	category string,
	limit int,
) ([]models.Product, error) {
	return searchProductsText(ctx, pcs.Client, query, category, limit)
}

func (pcs *PostgresCatalogStore) GetProductCategories(
	ctx context.Context,
) ([]models.ProductCategory, error) {
	return getProductCategories(ctx, pcs.Client)
}

func (pcs *PostgresCatalogStore) GetProductsByUUID(
	ctx context.Context,
	uuids []uuid.UUID,
) ([]models.Product, error) {
	return getProductsByUUID(ctx, pcs.Client, uuids)
}

func (pcs *PostgresCatalogStore) PutProductEmbeddings(
	ctx context.Context,
	products []models.Product,
) error {
	return putProductEmbeddings(ctx, pcs.appState, pcs.Client, products)
}

func (pcs *PostgresCatalogStore) PutCustomers(
	ctx context.Context,
	customers []models.Customer,
) error {
	return putCustomers(ctx, pcs.Client, customers)
}

func (pcs *PostgresCatalogStore) GetCustomer(
	ctx context.Context,
	customerID string,
) (*models.Customer, error) {
	return getCustomer(ctx, pcs.Client, customerID)
}

func (pcs *PostgresCatalogStore) ListCustomers(
	ctx context.Context,
	cursor int64,
	limit int,
) ([]models.Customer, error) {
	return listCustomers(ctx, pcs.Client, cursor, limit)
}

func (pcs *PostgresCatalogStore) GetCustomerOrders(
	ctx context.Context,
	customerID string,
	limit int,
) ([]models.Order, error) {
	return getCustomerOrders(ctx, pcs.Client, customerID, limit)
}

func (pcs *PostgresCatalogStore) PutOrders(ctx context.Context, orders []models.Order) error {
	return putOrders(ctx, pcs.Client, orders)
}

func (pcs *PostgresCatalogStore) PurgeDeleted(ctx context.Context) error {
	return purgeDeleted(ctx, pcs.Client)
}

func (pcs *PostgresCatalogStore) Close() error {
	if pcs.Client != nil {
		return pcs.Client.Close()
	}
	return nil
}
