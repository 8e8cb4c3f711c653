package postgres

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/dcnsakthi/intellica/internal"
	"github.com/dcnsakthi/intellica/pkg/models"
	"github.com/dcnsakthi/intellica/pkg/testutils"
)

var testDB *bun.DB
var testCtx context.Context
var appState *models.AppState

func TestMain(m *testing.M) {
	setup()
	exitCode := m.Run()
	tearDown()

	os.Exit(exitCode)
}

func setup() {
	logger := internal.GetLogger()
	internal.SetLogLevel(logrus.DebugLevel)

	appState = &models.AppState{}
	cfg := testutils.NewTestConfig()
	cfg.Store.Postgres.DSN = testutils.GetDSN()
	appState.Config = cfg

	// Initialize the database connection
	var err error
	testDB, err = NewPostgresConn(appState)
	if err != nil {
		panic(err)
	}
	testutils.SetUpDBLogging(testDB, logger)

	// Initialize the test context
	testCtx = context.Background()

	catalogStore, err := NewPostgresCatalogStore(appState, testDB)
	if err != nil {
		panic(err)
	}
	appState.CatalogStore = catalogStore

	err = CreateSchema(testCtx, appState, testDB)
	if err != nil {
		panic(err)
	}
}

func tearDown() {
	// Close the database connection
	if err := testDB.Close(); err != nil {
		panic(err)
	}
	internal.SetLogLevel(logrus.InfoLevel)
}

func testEmbedding(width int, seed float32) []float32 {
	embedding := make([]float32, width)
	for i := range embedding {
		embedding[i] = seed
	}
	embedding[0] = 1
	return embedding
}

func TestFakeProductFields(t *testing.T) {
	name := fakeProductName()
	assert.NotEmpty(t, name)
	assert.Contains(t, name, " ")

	description := fakeProductDescription()
	assert.NotEmpty(t, description)
	assert.True(t, strings.HasPrefix(description, "A "))
}

func TestPutProducts(t *testing.T) {
	productID := testutils.GenerateRandomString(10)
	products := []models.Product{
		{
			ProductID: productID,
			Name:      "Aurora Headphones",
			Category:  "audio",
			Price:     199.99,
			IsActive:  true,
		},
	}

	saved, err := putProducts(testCtx, testDB, products)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.NotEqual(t, uuid.Nil, saved[0].UUID)

	returned, err := getProduct(testCtx, testDB, productID)
	require.NoError(t, err)
	assert.Equal(t, productID, returned.ProductID)
	assert.Equal(t, "Aurora Headphones", returned.Name)
	assert.False(t, returned.IsEmbedded)

	// Upsert with a new price
	products[0].Price = 149.99
	_, err = putProducts(testCtx, testDB, products)
	require.NoError(t, err)

	returned, err = getProduct(testCtx, testDB, productID)
	require.NoError(t, err)
	assert.Equal(t, 149.99, returned.Price)
}

func TestPutProductsUpsertEmbedding(t *testing.T) {
	width := appState.Config.Embeddings.Dimensions
	productID := testutils.GenerateRandomString(10)
	products := []models.Product{
		{
			ProductID:   productID,
			Name:        "Harbor Soundbar",
			Category:    "audio",
			Description: "Slim soundbar with a wireless subwoofer.",
			Price:       399,
			IsActive:    true,
		},
	}
	_, err := putProducts(testCtx, testDB, products)
	require.NoError(t, err)

	// An upsert carrying an embedding must replace the stored vector
	embedding := make([]float32, width)
	embedding[0] = 1
	products[0].Embedding = embedding
	saved, err := putProducts(testCtx, testDB, products)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.True(t, saved[0].IsEmbedded)

	returned, err := getProduct(testCtx, testDB, productID)
	require.NoError(t, err)
	assert.True(t, returned.IsEmbedded)
	require.Len(t, returned.Embedding, width)
	assert.Equal(t, float32(1), returned.Embedding[0])

	// Without an embedding and with an unchanged description the stored
	// vector survives the upsert
	products[0].Embedding = nil
	products[0].Price = 349
	_, err = putProducts(testCtx, testDB, products)
	require.NoError(t, err)

	returned, err = getProduct(testCtx, testDB, productID)
	require.NoError(t, err)
	assert.True(t, returned.IsEmbedded)
	assert.Equal(t, 349.0, returned.Price)
	assert.Equal(t, float32(1), returned.Embedding[0])

	// A changed description invalidates the stored embedding so the
	// embedder task recomputes it
	products[0].Description = "Slim soundbar with an upgraded subwoofer."
	saved, err = putProducts(testCtx, testDB, products)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.False(t, saved[0].IsEmbedded)

	returned, err = getProduct(testCtx, testDB, productID)
	require.NoError(t, err)
	assert.False(t, returned.IsEmbedded)
}

func TestGetProductNotFound(t *testing.T) {
	_, err := getProduct(testCtx, testDB, "no-such-product")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestPutProductEmbeddings(t *testing.T) {
	width := appState.Config.Embeddings.Dimensions
	productID := testutils.GenerateRandomString(10)
	products := []models.Product{
		{
			ProductID: productID,
			Name:      "Vector Speaker",
			Category:  "audio",
			Price:     79.99,
			IsActive:  true,
		},
	}
	_, err := putProducts(testCtx, testDB, products)
	require.NoError(t, err)

	stored, err := getProduct(testCtx, testDB, productID)
	require.NoError(t, err)

	stored.Embedding = testEmbedding(width, 0.5)
	err = putProductEmbeddings(testCtx, appState, testDB, []models.Product{*stored})
	require.NoError(t, err)

	embedded, err := getProductEmbeddings(testCtx, testDB)
	require.NoError(t, err)

	var found bool
	for _, p := range embedded {
		if p.ProductID == productID {
			found = true
			assert.True(t, p.IsEmbedded)
			assert.Len(t, p.Embedding, width)
		}
	}
	assert.True(t, found)
}

func TestPutProductEmbeddingsWidthMismatch(t *testing.T) {
	productID := testutils.GenerateRandomString(10)
	products := []models.Product{
		{
			ProductID: productID,
			Name:      "Short Vector Lamp",
			Category:  "home",
			Price:     29.99,
			IsActive:  true,
			Embedding: []float32{1, 2, 3},
		},
	}
	err := putProductEmbeddings(testCtx, appState, testDB, products)
	assert.Error(t, err)
}

func TestGetProductsByCategory(t *testing.T) {
	category := testutils.GenerateRandomString(8)
	products := []models.Product{
		{ProductID: category + "-1", Name: "P1", Category: category, Price: 100, IsActive: true},
		{ProductID: category + "-2", Name: "P2", Category: category, Price: 90, IsActive: true},
		{ProductID: category + "-3", Name: "P3", Category: category, Price: 400, IsActive: true},
		{ProductID: category + "-4", Name: "P4", Category: category, Price: 99, IsActive: false},
	}
	_, err := putProducts(testCtx, testDB, products)
	require.NoError(t, err)

	returned, err := getProductsByCategory(testCtx, testDB, category, category+"-1", 100, 10)
	require.NoError(t, err)
	require.Len(t, returned, 2)
	assert.Equal(t, category+"-2", returned[0].ProductID)
	assert.Equal(t, category+"-3", returned[1].ProductID)
}

func TestSearchProductsText(t *testing.T) {
	token := testutils.GenerateRandomString(12)
	category := testutils.GenerateRandomString(8)
	otherCategory := testutils.GenerateRandomString(8)
	products := []models.Product{
		{
			ProductID: token + "-1",
			Name:      "Ridge " + token + " Pack",
			Category:  category,
			Price:     120,
			IsActive:  true,
		},
		{
			ProductID:   token + "-2",
			Name:        "Creek Pack",
			Description: "Daypack with a " + token + " frame.",
			Category:    otherCategory,
			Price:       80,
			IsActive:    true,
		},
		{
			ProductID: token + "-3",
			Name:      "Delisted " + token + " Pack",
			Category:  category,
			Price:     60,
			IsActive:  false,
		},
	}
	_, err := putProducts(testCtx, testDB, products)
	require.NoError(t, err)

	// matches name and description, skips the inactive product
	returned, err := searchProductsText(testCtx, testDB, token, "", 10)
	require.NoError(t, err)
	require.Len(t, returned, 2)

	// category restriction
	returned, err = searchProductsText(testCtx, testDB, token, category, 10)
	require.NoError(t, err)
	require.Len(t, returned, 1)
	assert.Equal(t, token+"-1", returned[0].ProductID)
}

func TestListProducts(t *testing.T) {
	category := testutils.GenerateRandomString(8)
	products := []models.Product{
		{ProductID: category + "-1", Name: "P1", Category: category, Price: 10, IsActive: true},
		{ProductID: category + "-2", Name: "P2", Category: category, Price: 20, IsActive: true},
	}
	_, err := putProducts(testCtx, testDB, products)
	require.NoError(t, err)

	returned, err := listProducts(testCtx, testDB, 0, 1)
	require.NoError(t, err)
	assert.Len(t, returned, 1)
}

func TestPutCustomers(t *testing.T) {
	customerID := testutils.GenerateRandomString(10)
	customers := []models.Customer{
		{
			CustomerID: customerID,
			FirstName:  "Ada",
			LastName:   "Lovelace",
			Email:      "ada@example.com",
			Segment:    "consumer",
		},
	}

	err := putCustomers(testCtx, testDB, customers)
	require.NoError(t, err)

	returned, err := getCustomer(testCtx, testDB, customerID)
	require.NoError(t, err)
	assert.Equal(t, customerID, returned.CustomerID)
	assert.Equal(t, "Ada", returned.FirstName)
}

func TestGetCustomerNotFound(t *testing.T) {
	_, err := getCustomer(testCtx, testDB, "no-such-customer")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestPutOrders(t *testing.T) {
	customerID := testutils.GenerateRandomString(10)
	err := putCustomers(testCtx, testDB, []models.Customer{
		{CustomerID: customerID, FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com"},
	})
	require.NoError(t, err)

	orderID := testutils.GenerateRandomString(12)
	orders := []models.Order{
		{
			OrderID:     orderID,
			CustomerID:  customerID,
			Status:      "delivered",
			TotalAmount: 42.50,
			Items: []models.OrderItem{
				{ProductID: "PROD-0001", Quantity: 1, UnitPrice: 42.50},
			},
		},
	}
	err = putOrders(testCtx, testDB, orders)
	require.NoError(t, err)

	returned, err := getCustomerOrders(testCtx, testDB, customerID, 10)
	require.NoError(t, err)
	require.Len(t, returned, 1)
	assert.Equal(t, orderID, returned[0].OrderID)
	require.Len(t, returned[0].Items, 1)
	assert.Equal(t, "PROD-0001", returned[0].Items[0].ProductID)
}
