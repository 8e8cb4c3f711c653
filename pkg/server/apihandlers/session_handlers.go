package apihandlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dcnsakthi/intellica/pkg/models"
	"github.com/dcnsakthi/intellica/pkg/server/handlertools"
)

const (
	// DefaultAnalyticsWindowDays is the default lookback for session analytics.
	DefaultAnalyticsWindowDays = 7
	// DefaultAnalyticsTopN is the default size of the most-viewed product list.
	DefaultAnalyticsTopN = 10
)

// CreateSessionHandler godoc
//
//	@Summary	Creates a browsing session
//	@Tags		session
//	@Accept		json
//	@Produce	json
//	@Param		session	body		models.Session	true	"Session"
//	@Success	201		{object}	models.Session
//	@Failure	400		{object}	APIError	"Bad Request"
//	@Failure	500		{object}	APIError	"Internal Server Error"
//	@Router		/api/v1/sessions [post]
func CreateSessionHandler(appState *models.AppState) http.HandlerFunc {
	store := appState.DocStore
	return func(w http.ResponseWriter, r *http.Request) {
		var session models.Session
		if err := handlertools.DecodeJSON(r, &session); err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}
		if session.SessionID == "" {
			handlertools.RenderError(
				w,
				errors.New("session_id is required"),
				http.StatusBadRequest,
			)
			return
		}

		newSession, err := store.CreateSession(r.Context(), &session)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusCreated)
		if err := handlertools.EncodeJSON(w, newSession); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// GetSessionHandler godoc
//
//	@Summary	Returns a session by ID
//	@Tags		session
//	@Accept		json
//	@Produce	json
//	@Param		sessionId	path		string	true	"Session ID"
//	@Success	200			{object}	models.Session
//	@Failure	404			{object}	APIError	"Not Found"
//	@Failure	500			{object}	APIError	"Internal Server Error"
//	@Router		/api/v1/sessions/{sessionId} [get]
func GetSessionHandler(appState *models.AppState) http.HandlerFunc {
	store := appState.DocStore
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionId")

		session, err := store.GetSession(r.Context(), sessionID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				handlertools.RenderError(w, err, http.StatusNotFound)
				return
			}
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		if err := handlertools.EncodeJSON(w, session); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// UpdateSessionHandler godoc
//
//	@Summary		Updates a session's metadata, optionally ending it
//	@Description	Metadata keys are merged into the existing session metadata.
//	@Tags			session
//	@Accept			json
//	@Produce		json
//	@Param			sessionId	path		string			true	"Session ID"
//	@Param			session		body		models.Session	true	"Session"
//	@Success		200			{object}	models.Session
//	@Failure		404			{object}	APIError	"Not Found"
//	@Failure		500			{object}	APIError	"Internal Server Error"
//	@Router			/api/v1/sessions/{sessionId} [patch]
func UpdateSessionHandler(appState *models.AppState) http.HandlerFunc {
	store := appState.DocStore
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionId")
		var session models.Session
		if err := handlertools.DecodeJSON(r, &session); err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}
		session.SessionID = sessionID

		updatedSession, err := store.UpdateSession(r.Context(), &session)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				handlertools.RenderError(w, err, http.StatusNotFound)
				return
			}
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		if err := handlertools.EncodeJSON(w, updatedSession); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// DeleteSessionHandler godoc
//
//	@Summary	Soft deletes a session and its events
//	@Tags		session
//	@Accept		json
//	@Produce	json
//	@Param		sessionId	path		string		true	"Session ID"
//	@Success	200			{object}	string		"OK"
//	@Failure	404			{object}	APIError	"Not Found"
//	@Failure	500			{object}	APIError	"Internal Server Error"
//	@Router		/api/v1/sessions/{sessionId} [delete]
func DeleteSessionHandler(appState *models.AppState) http.HandlerFunc {
	store := appState.DocStore
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionId")

		if err := store.DeleteSession(r.Context(), sessionID); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				handlertools.RenderError(w, err, http.StatusNotFound)
				return
			}
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

// GetSessionListHandler godoc
//
//	@Summary	Returns a page of sessions, most recent first
//	@Tags		session
//	@Accept		json
//	@Produce	json
//	@Param		cursor	query		int64	false	"Number of sessions to skip"
//	@Param		limit	query		integer	false	"Page size"
//	@Success	200		{object}	[]models.Session
//	@Failure	500		{object}	APIError	"Internal Server Error"
//	@Router		/api/v1/sessions [get]
func GetSessionListHandler(appState *models.AppState) http.HandlerFunc {
	store := appState.DocStore
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

		sessions, err := store.ListSessions(r.Context(), cursor, limit)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		if err := handlertools.EncodeJSON(w, sessions); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// GetCustomerSessionsHandler godoc
//
//	@Summary	Returns a customer's sessions, most recent first
//	@Tags		session
//	@Accept		json
//	@Produce	json
//	@Param		customerId	path		string	true	"Customer ID"
//	@Param		limit		query		integer	false	"Maximum number of sessions"
//	@Success	200			{object}	[]models.Session
//	@Failure	500			{object}	APIError	"Internal Server Error"
//	@Router		/api/v1/customers/{customerId}/sessions [get]
func GetCustomerSessionsHandler(appState *models.AppState) http.HandlerFunc {
	store := appState.DocStore
	return func(w http.ResponseWriter, r *http.Request) {
		customerID := chi.URLParam(r, "customerId")
		limit, err := handlertools.IntFromQuery[int](r, "limit")
		if err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}

		sessions, err := store.GetSessionsForCustomer(r.Context(), customerID, limit)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		if err := handlertools.EncodeJSON(w, sessions); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// CreateSessionEventsHandler godoc
//
//	@Summary	Appends events to a session
//	@Tags		session
//	@Accept		json
//	@Produce	json
//	@Param		sessionId	path		string					true	"Session ID"
//	@Param		events		body		[]models.SessionEvent	true	"Events"
//	@Success	200			{object}	string		"OK"
//	@Failure	400			{object}	APIError	"Bad Request"
//	@Failure	404			{object}	APIError	"Not Found"
//	@Failure	500			{object}	APIError	"Internal Server Error"
//	@Router		/api/v1/sessions/{sessionId}/events [post]
func CreateSessionEventsHandler(appState *models.AppState) http.HandlerFunc {
	store := appState.DocStore
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionId")
		var events []models.SessionEvent
		if err := handlertools.DecodeJSON(r, &events); err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}
		if len(events) == 0 {
			handlertools.RenderError(
				w,
				errors.New("at least one event is required"),
				http.StatusBadRequest,
			)
			return
		}

		if err := store.PutSessionEvents(r.Context(), sessionID, events); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				handlertools.RenderError(w, err, http.StatusNotFound)
				return
			}
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

// GetSessionEventsHandler godoc
//
//	@Summary	Returns a session's events in insertion order
//	@Tags		session
//	@Accept		json
//	@Produce	json
//	@Param		sessionId	path		string	true	"Session ID"
//	@Success	200			{object}	[]models.SessionEvent
//	@Failure	500			{object}	APIError	"Internal Server Error"
//	@Router		/api/v1/sessions/{sessionId}/events [get]
func GetSessionEventsHandler(appState *models.AppState) http.HandlerFunc {
	store := appState.DocStore
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionId")

		events, err := store.GetSessionEvents(r.Context(), sessionID)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		if err := handlertools.EncodeJSON(w, events); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// GetSessionAnalyticsHandler godoc
//
//	@Summary		Returns aggregated session activity
//	@Description	Aggregates event counts by type and the most viewed products
//	@Description	across all sessions inside the lookback window.
//	@Tags			analytics
//	@Accept			json
//	@Produce		json
//	@Param			days	query		integer	false	"Lookback window in days"
//	@Param			top_n	query		integer	false	"Number of most viewed products"
//	@Success		200		{object}	models.SessionAnalytics
//	@Failure		500		{object}	APIError	"Internal Server Error"
//	@Router			/api/v1/analytics/sessions [get]
func GetSessionAnalyticsHandler(appState *models.AppState) http.HandlerFunc {
	store := appState.DocStore
	return func(w http.ResponseWriter, r *http.Request) {
		days, err := handlertools.IntFromQuery[int](r, "days")
		if err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}
		if days <= 0 {
			days = DefaultAnalyticsWindowDays
		}
		topN, err := handlertools.IntFromQuery[int](r, "top_n")
		if err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}
		if topN <= 0 {
			topN = DefaultAnalyticsTopN
		}

		since := time.Now().AddDate(0, 0, -days)
		analytics, err := store.GetSessionAnalytics(r.Context(), since, topN)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		if err := handlertools.EncodeJSON(w, analytics); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// GetPopularProductsHandler godoc
//
//	@Summary		Returns the most viewed products inside the lookback window
//	@Description	View counts come from session events and are joined with the
//	@Description	product catalog. Views of products that were never loaded into
//	@Description	the catalog are skipped.
//	@Tags			analytics
//	@Accept			json
//	@Produce		json
//	@Param			days	query		integer	false	"Lookback window in days"
//	@Param			limit	query		integer	false	"Number of products to return"
//	@Success		200		{object}	[]models.PopularProduct
//	@Failure		500		{object}	APIError	"Internal Server Error"
//	@Router			/api/v1/analytics/popular-products [get]
func GetPopularProductsHandler(appState *models.AppState) http.HandlerFunc {
	store := appState.DocStore
	catalog := appState.CatalogStore
	return func(w http.ResponseWriter, r *http.Request) {
		days, err := handlertools.IntFromQuery[int](r, "days")
		if err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}
		if days <= 0 {
			days = DefaultAnalyticsWindowDays
		}
		limit, err := handlertools.IntFromQuery[int](r, "limit")
		if err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}
		if limit <= 0 {
			limit = DefaultAnalyticsTopN
		}

		since := time.Now().AddDate(0, 0, -days)
		analytics, err := store.GetSessionAnalytics(r.Context(), since, limit)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		popular := make([]models.PopularProduct, 0, len(analytics.TopViewed))
		for _, viewed := range analytics.TopViewed {
			product, err := catalog.GetProduct(r.Context(), viewed.ProductID)
			if err != nil {
				if errors.Is(err, models.ErrNotFound) {
					continue
				}
				handlertools.RenderError(w, err, http.StatusInternalServerError)
				return
			}
			popular = append(popular, models.PopularProduct{
				ProductID: viewed.ProductID,
				Views:     viewed.Views,
				Product:   *product,
			})
		}

		if err := handlertools.EncodeJSON(w, popular); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}
