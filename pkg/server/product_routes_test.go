package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcnsakthi/intellica/pkg/models"
	"github.com/dcnsakthi/intellica/pkg/testutils"
)

func embeddingWithSignal(signal ...int) []float32 {
	embedding := make([]float32, appState.Config.Embeddings.Dimensions)
	for _, i := range signal {
		embedding[i] = 1
	}
	return embedding
}

func TestGetProductRoute(t *testing.T) {
	productID := testutils.GenerateRandomString(10)
	_, err := appState.CatalogStore.PutProducts(testCtx, []models.Product{
		{
			ProductID: productID,
			Name:      "Trail Jacket",
			Category:  "outdoor",
			Price:     129.99,
			IsActive:  true,
		},
	})
	require.NoError(t, err)

	resp, err := http.Get(testServer.URL + "/api/v1/products/" + productID)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var product models.Product
	err = json.NewDecoder(resp.Body).Decode(&product)
	require.NoError(t, err)
	assert.Equal(t, productID, product.ProductID)
	assert.Equal(t, "Trail Jacket", product.Name)
}

func TestGetProductRouteNotFound(t *testing.T) {
	resp, err := http.Get(testServer.URL + "/api/v1/products/no-such-product")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateProductsRoute(t *testing.T) {
	productID := testutils.GenerateRandomString(10)
	products := []models.Product{
		{
			ProductID: productID,
			Name:      "Alpine Stove",
			Category:  "outdoor",
			Price:     64.50,
			IsActive:  true,
		},
	}
	body, err := json.Marshal(products)
	require.NoError(t, err)

	resp, err := http.Post(
		testServer.URL+"/api/v1/products",
		"application/json",
		bytes.NewBuffer(body),
	)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	saved, err := appState.CatalogStore.GetProduct(testCtx, productID)
	require.NoError(t, err)
	assert.Equal(t, "Alpine Stove", saved.Name)

	// The unembedded product must have been queued for the embedder task
	tasks := testPublisher.tasksFor(models.ProductEmbedderTopic)
	require.NotEmpty(t, tasks)
	embedTasks, ok := tasks[len(tasks)-1].Payload.([]models.ProductEmbedTask)
	require.True(t, ok)
	assert.Equal(t, saved.UUID, embedTasks[0].UUID)
}

func TestCreateProductsRouteEmptyBatch(t *testing.T) {
	resp, err := http.Post(
		testServer.URL+"/api/v1/products",
		"application/json",
		bytes.NewBufferString("[]"),
	)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSimilarProductsRoute(t *testing.T) {
	category := testutils.GenerateRandomString(8)
	sourceID := testutils.GenerateRandomString(10)
	neighborID := testutils.GenerateRandomString(10)

	products := []models.Product{
		{ProductID: sourceID, Name: "Canyon Tent", Category: category, Price: 300, IsActive: true},
		{ProductID: neighborID, Name: "Mesa Tent", Category: category, Price: 280, IsActive: true},
	}
	saved, err := appState.CatalogStore.PutProducts(testCtx, products)
	require.NoError(t, err)

	// Both products share a vector that is distant from every other test vector
	for i := range saved {
		saved[i].Embedding = embeddingWithSignal(0, 1)
	}
	err = appState.CatalogStore.PutProductEmbeddings(testCtx, saved)
	require.NoError(t, err)

	url := fmt.Sprintf(
		"%s/api/v1/products/%s/similar?limit=5&min_score=0.99",
		testServer.URL,
		sourceID,
	)
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result models.SimilarProductsResult
	err = json.NewDecoder(resp.Body).Decode(&result)
	require.NoError(t, err)

	assert.False(t, result.Fallback)
	require.Len(t, result.Results, 1)
	assert.Equal(t, neighborID, result.Results[0].Product.ProductID)
	assert.InDelta(t, 1.0, result.Results[0].Score, 0.0001)
}

func TestSimilarProductsRouteFallback(t *testing.T) {
	category := testutils.GenerateRandomString(8)
	sourceID := testutils.GenerateRandomString(10)
	nearID := testutils.GenerateRandomString(10)
	farID := testutils.GenerateRandomString(10)

	// None of these products carry embeddings
	_, err := appState.CatalogStore.PutProducts(testCtx, []models.Product{
		{ProductID: sourceID, Name: "Creek Boots", Category: category, Price: 100, IsActive: true},
		{ProductID: nearID, Name: "River Boots", Category: category, Price: 110, IsActive: true},
		{ProductID: farID, Name: "Peak Boots", Category: category, Price: 250, IsActive: true},
	})
	require.NoError(t, err)

	resp, err := http.Get(testServer.URL + "/api/v1/products/" + sourceID + "/similar")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result models.SimilarProductsResult
	err = json.NewDecoder(resp.Body).Decode(&result)
	require.NoError(t, err)

	assert.True(t, result.Fallback)
	require.Len(t, result.Results, 2)
	assert.Equal(t, nearID, result.Results[0].Product.ProductID)
	assert.Equal(t, farID, result.Results[1].Product.ProductID)
}

func TestSimilarProductsRouteFallbackBelowThreshold(t *testing.T) {
	category := testutils.GenerateRandomString(8)
	sourceID := testutils.GenerateRandomString(10)
	siblingID := testutils.GenerateRandomString(10)

	saved, err := appState.CatalogStore.PutProducts(testCtx, []models.Product{
		{ProductID: sourceID, Name: "Ridge Lantern", Category: category, Price: 60, IsActive: true},
	})
	require.NoError(t, err)
	_, err = appState.CatalogStore.PutProducts(testCtx, []models.Product{
		{ProductID: siblingID, Name: "Valley Lantern", Category: category, Price: 65, IsActive: true},
	})
	require.NoError(t, err)

	// The source is embedded, but orthogonal to every other test vector, so
	// nothing clears the threshold and the attribute path must take over.
	saved[0].Embedding = embeddingWithSignal(2)
	err = appState.CatalogStore.PutProductEmbeddings(testCtx, saved)
	require.NoError(t, err)

	url := fmt.Sprintf(
		"%s/api/v1/products/%s/similar?limit=5&min_score=0.99",
		testServer.URL,
		sourceID,
	)
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result models.SimilarProductsResult
	err = json.NewDecoder(resp.Body).Decode(&result)
	require.NoError(t, err)

	assert.True(t, result.Fallback)
	require.Len(t, result.Results, 1)
	assert.Equal(t, siblingID, result.Results[0].Product.ProductID)
}

func TestSearchProductsRoute(t *testing.T) {
	productID := testutils.GenerateRandomString(10)
	saved, err := appState.CatalogStore.PutProducts(testCtx, []models.Product{
		{
			ProductID: productID,
			Name:      "Summit Pack",
			Category:  "outdoor",
			Price:     180,
			IsActive:  true,
		},
	})
	require.NoError(t, err)

	// Matches the static test embedder's query vector exactly
	saved[0].Embedding = embeddingWithSignal(0)
	err = appState.CatalogStore.PutProductEmbeddings(testCtx, saved)
	require.NoError(t, err)

	minScore := 0.99
	payload := models.SearchPayload{
		Text:     "lightweight hiking backpack",
		Limit:    10,
		MinScore: &minScore,
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	resp, err := http.Post(
		testServer.URL+"/api/v1/products/search",
		"application/json",
		bytes.NewBuffer(body),
	)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var results []models.ProductSearchResult
	err = json.NewDecoder(resp.Body).Decode(&results)
	require.NoError(t, err)

	var found bool
	for _, result := range results {
		if result.Product.ProductID == productID {
			found = true
			assert.InDelta(t, 1.0, result.Score, 0.0001)
		}
	}
	assert.True(t, found)
}

func TestSearchProductsRouteMissingText(t *testing.T) {
	resp, err := http.Post(
		testServer.URL+"/api/v1/products/search",
		"application/json",
		bytes.NewBufferString(`{"limit": 5}`),
	)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProductListRoute(t *testing.T) {
	_, err := appState.CatalogStore.PutProducts(testCtx, []models.Product{
		{
			ProductID: testutils.GenerateRandomString(10),
			Name:      "Basecamp Chair",
			Category:  "outdoor",
			Price:     45,
			IsActive:  true,
		},
	})
	require.NoError(t, err)

	resp, err := http.Get(testServer.URL + "/api/v1/products?limit=5")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var products []models.Product
	err = json.NewDecoder(resp.Body).Decode(&products)
	require.NoError(t, err)
	assert.NotEmpty(t, products)
	assert.LessOrEqual(t, len(products), 5)
}

func TestTextSearchProductsRoute(t *testing.T) {
	token := testutils.GenerateRandomString(12)
	productID := testutils.GenerateRandomString(10)
	_, err := appState.CatalogStore.PutProducts(testCtx, []models.Product{
		{
			ProductID:   productID,
			Name:        "Granite Mug " + token,
			Category:    "kitchen",
			Price:       18,
			IsActive:    true,
			Description: "Enamel camping mug.",
		},
	})
	require.NoError(t, err)

	resp, err := http.Get(testServer.URL + "/api/v1/products/search?q=" + token)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var products []models.Product
	err = json.NewDecoder(resp.Body).Decode(&products)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, productID, products[0].ProductID)
}

func TestTextSearchProductsRouteMissingQuery(t *testing.T) {
	resp, err := http.Get(testServer.URL + "/api/v1/products/search")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProductCategoriesRoute(t *testing.T) {
	category := testutils.GenerateRandomString(8)
	_, err := appState.CatalogStore.PutProducts(testCtx, []models.Product{
		{
			ProductID: testutils.GenerateRandomString(10),
			Name:      "Summit Flask",
			Category:  category,
			Price:     25,
			IsActive:  true,
		},
	})
	require.NoError(t, err)

	resp, err := http.Get(testServer.URL + "/api/v1/products/categories")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var categories []models.ProductCategory
	err = json.NewDecoder(resp.Body).Decode(&categories)
	require.NoError(t, err)
	found := false
	for _, c := range categories {
		if c.Category == category {
			found = true
			assert.Equal(t, int64(1), c.Count)
		}
	}
	assert.True(t, found)
}
