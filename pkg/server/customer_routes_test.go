package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcnsakthi/intellica/pkg/models"
	"github.com/dcnsakthi/intellica/pkg/testutils"
)

func TestCreateCustomersRoute(t *testing.T) {
	customerID := testutils.GenerateRandomString(10)
	customers := []models.Customer{
		{
			CustomerID: customerID,
			FirstName:  "Maya",
			LastName:   "Iyer",
			Email:      customerID + "@example.com",
			Segment:    "loyal",
		},
	}
	body, err := json.Marshal(customers)
	require.NoError(t, err)

	resp, err := http.Post(
		testServer.URL+"/api/v1/customers",
		"application/json",
		bytes.NewBuffer(body),
	)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	saved, err := appState.CatalogStore.GetCustomer(testCtx, customerID)
	require.NoError(t, err)
	assert.Equal(t, "Maya", saved.FirstName)
}

func TestGetCustomerRouteNotFound(t *testing.T) {
	resp, err := http.Get(testServer.URL + "/api/v1/customers/no-such-customer")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCustomerOrdersRoute(t *testing.T) {
	customerID := testutils.GenerateRandomString(10)
	err := appState.CatalogStore.PutCustomers(testCtx, []models.Customer{
		{CustomerID: customerID, FirstName: "Omar", LastName: "Haddad"},
	})
	require.NoError(t, err)

	orders := []models.Order{
		{
			OrderID:     testutils.GenerateRandomString(10),
			CustomerID:  customerID,
			OrderDate:   time.Now().Add(-48 * time.Hour),
			Status:      "delivered",
			TotalAmount: 99.50,
			Items: []models.OrderItem{
				{ProductID: "PROD-0001", Quantity: 1, UnitPrice: 99.50},
			},
		},
		{
			OrderID:     testutils.GenerateRandomString(10),
			CustomerID:  customerID,
			OrderDate:   time.Now().Add(-24 * time.Hour),
			Status:      "shipped",
			TotalAmount: 45.00,
			Items: []models.OrderItem{
				{ProductID: "PROD-0002", Quantity: 3, UnitPrice: 15.00},
			},
		},
	}
	body, err := json.Marshal(orders)
	require.NoError(t, err)

	resp, err := http.Post(
		testServer.URL+"/api/v1/orders",
		"application/json",
		bytes.NewBuffer(body),
	)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	getResp, err := http.Get(testServer.URL + "/api/v1/customers/" + customerID + "/orders")
	require.NoError(t, err)
	defer getResp.Body.Close()
	require.Equal(t, http.StatusOK, getResp.StatusCode)

	var returned []models.Order
	err = json.NewDecoder(getResp.Body).Decode(&returned)
	require.NoError(t, err)
	require.Len(t, returned, 2)
	// Most recent first
	assert.Equal(t, "shipped", returned[0].Status)
	require.Len(t, returned[0].Items, 1)
	assert.Equal(t, 3, returned[0].Items[0].Quantity)
}

func TestCustomerInsightsRoute(t *testing.T) {
	customerID := testutils.GenerateRandomString(10)
	err := appState.CatalogStore.PutCustomers(testCtx, []models.Customer{
		{CustomerID: customerID, FirstName: "Lena", LastName: "Fischer", Segment: "new"},
	})
	require.NoError(t, err)

	err = appState.CatalogStore.PutOrders(testCtx, []models.Order{
		{
			OrderID:     testutils.GenerateRandomString(10),
			CustomerID:  customerID,
			OrderDate:   time.Now().Add(-72 * time.Hour),
			Status:      "delivered",
			TotalAmount: 100,
		},
		{
			OrderID:     testutils.GenerateRandomString(10),
			CustomerID:  customerID,
			OrderDate:   time.Now().Add(-12 * time.Hour),
			Status:      "processing",
			TotalAmount: 50,
		},
	})
	require.NoError(t, err)

	sessionID, err := testutils.GenerateRandomSessionID(16)
	require.NoError(t, err)
	_, err = appState.DocStore.CreateSession(testCtx, &models.Session{
		SessionID:  sessionID,
		CustomerID: customerID,
		Channel:    "web",
	})
	require.NoError(t, err)

	resp, err := http.Get(testServer.URL + "/api/v1/customers/" + customerID + "/insights")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var insights models.CustomerInsights
	err = json.NewDecoder(resp.Body).Decode(&insights)
	require.NoError(t, err)

	assert.Equal(t, customerID, insights.Customer.CustomerID)
	assert.Equal(t, 2, insights.OrderCount)
	assert.InDelta(t, 150.0, insights.TotalSpent, 0.001)
	assert.InDelta(t, 75.0, insights.AverageOrder, 0.001)
	require.Len(t, insights.RecentSessions, 1)
	assert.Equal(t, sessionID, insights.RecentSessions[0].SessionID)
}

func TestCustomerInsightsRouteNotFound(t *testing.T) {
	resp, err := http.Get(testServer.URL + "/api/v1/customers/no-such-customer/insights")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
