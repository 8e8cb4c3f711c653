package apihandlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dcnsakthi/intellica/pkg/models"
	"github.com/dcnsakthi/intellica/pkg/server/handlertools"
)

// RecentSessionCount is how many browsing sessions the customer insights
// view includes.
const RecentSessionCount = 10

// CreateCustomersHandler godoc
//
//	@Summary	Creates or updates a batch of customers
//	@Tags		customer
//	@Accept		json
//	@Produce	json
//	@Param		customers	body		[]models.Customer	true	"Customers"
//	@Success	200			{object}	string				"OK"
//	@Failure	400			{object}	APIError			"Bad Request"
//	@Failure	500			{object}	APIError			"Internal Server Error"
//	@Router		/api/v1/customers [post]
func CreateCustomersHandler(appState *models.AppState) http.HandlerFunc {
	store := appState.CatalogStore
	return func(w http.ResponseWriter, r *http.Request) {
		var customers []models.Customer
		if err := handlertools.DecodeJSON(r, &customers); err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}
		if len(customers) == 0 {
			handlertools.RenderError(
				w,
				errors.New("at least one customer is required"),
				http.StatusBadRequest,
			)
			return
		}

		if err := store.PutCustomers(r.Context(), customers); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(OKResponse)); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// GetCustomerHandler godoc
//
//	@Summary	Returns a customer by its customer ID
//	@Tags		customer
//	@Accept		json
//	@Produce	json
//	@Param		customerId	path		string	true	"Customer ID"
//	@Success	200			{object}	models.Customer
//	@Failure	404			{object}	APIError	"Not Found"
//	@Failure	500			{object}	APIError	"Internal Server Error"
//	@Router		/api/v1/customers/{customerId} [get]
func GetCustomerHandler(appState *models.AppState) http.HandlerFunc {
	store := appState.CatalogStore
	return func(w http.ResponseWriter, r *http.Request) {
		customerID := chi.URLParam(r, "customerId")

		customer, err := store.GetCustomer(r.Context(), customerID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				handlertools.RenderError(w, err, http.StatusNotFound)
				return
			}
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		if err := handlertools.EncodeJSON(w, customer); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// GetCustomerListHandler godoc
//
//	@Summary	Returns a page of customers
//	@Tags		customer
//	@Accept		json
//	@Produce	json
//	@Param		cursor	query		int64	false	"Cursor, the internal ID of the last customer seen"
//	@Param		limit	query		integer	false	"Page size"
//	@Success	200		{object}	[]models.Customer
//	@Failure	500		{object}	APIError	"Internal Server Error"
//	@Router		/api/v1/customers [get]
func GetCustomerListHandler(appState *models.AppState) http.HandlerFunc {
	store := appState.CatalogStore
	return func(w http.ResponseWriter, r *http.Request) {
		cursor, err := handlertools.IntFromQuery[int64](r, "cursor")
		if err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}
		limit, err := handlertools.IntFromQuery[int](r, "limit")
		if err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}
		if limit <= 0 {
			limit = appState.Config.Search.DefaultLimit
		}

		customers, err := store.ListCustomers(r.Context(), cursor, limit)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		if err := handlertools.EncodeJSON(w, customers); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// GetCustomerOrdersHandler godoc
//
//	@Summary	Returns a customer's orders with their items, most recent first
//	@Tags		customer
//	@Accept		json
//	@Produce	json
//	@Param		customerId	path		string	true	"Customer ID"
//	@Param		limit		query		integer	false	"Maximum number of orders"
//	@Success	200			{object}	[]models.Order
//	@Failure	500			{object}	APIError	"Internal Server Error"
//	@Router		/api/v1/customers/{customerId}/orders [get]
func GetCustomerOrdersHandler(appState *models.AppState) http.HandlerFunc {
	store := appState.CatalogStore
	return func(w http.ResponseWriter, r *http.Request) {
		customerID := chi.URLParam(r, "customerId")
		limit, err := handlertools.IntFromQuery[int](r, "limit")
		if err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}

		orders, err := store.GetCustomerOrders(r.Context(), customerID, limit)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		if err := handlertools.EncodeJSON(w, orders); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// CreateOrdersHandler godoc
//
//	@Summary	Creates a batch of orders with their items
//	@Tags		customer
//	@Accept		json
//	@Produce	json
//	@Param		orders	body		[]models.Order	true	"Orders"
//	@Success	200		{object}	string			"OK"
//	@Failure	400		{object}	APIError		"Bad Request"
//	@Failure	500		{object}	APIError		"Internal Server Error"
//	@Router		/api/v1/orders [post]
func CreateOrdersHandler(appState *models.AppState) http.HandlerFunc {
	store := appState.CatalogStore
	return func(w http.ResponseWriter, r *http.Request) {
		var orders []models.Order
		if err := handlertools.DecodeJSON(r, &orders); err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}
		if len(orders) == 0 {
			handlertools.RenderError(
				w,
				errors.New("at least one order is required"),
				http.StatusBadRequest,
			)
			return
		}

		if err := store.PutOrders(r.Context(), orders); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(OKResponse)); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// GetCustomerInsightsHandler godoc
//
//	@Summary		Returns the 360 view of a customer
//	@Description	Combines the customer profile with order aggregates and recent
//	@Description	browsing sessions.
//	@Tags			customer
//	@Accept			json
//	@Produce		json
//	@Param			customerId	path		string	true	"Customer ID"
//	@Success		200			{object}	models.CustomerInsights
//	@Failure		404			{object}	APIError	"Not Found"
//	@Failure		500			{object}	APIError	"Internal Server Error"
//	@Router			/api/v1/customers/{customerId}/insights [get]
func GetCustomerInsightsHandler(appState *models.AppState) http.HandlerFunc {
	store := appState.CatalogStore
	docStore := appState.DocStore
	return func(w http.ResponseWriter, r *http.Request) {
		customerID := chi.URLParam(r, "customerId")

		customer, err := store.GetCustomer(r.Context(), customerID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				handlertools.RenderError(w, err, http.StatusNotFound)
				return
			}
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		orders, err := store.GetCustomerOrders(r.Context(), customerID, 0)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		sessions, err := docStore.GetSessionsForCustomer(
			r.Context(),
			customerID,
			RecentSessionCount,
		)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		insights := models.CustomerInsights{
			Customer:       *customer,
			OrderCount:     len(orders),
			RecentSessions: sessions,
		}
		for _, order := range orders {
			insights.TotalSpent += order.TotalAmount
			if order.OrderDate.After(insights.LastOrderDate) {
				insights.LastOrderDate = order.OrderDate
			}
		}
		if insights.OrderCount > 0 {
			insights.AverageOrder = insights.TotalSpent / float64(insights.OrderCount)
		}

		if err := handlertools.EncodeJSON(w, insights); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}
