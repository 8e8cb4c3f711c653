package apihandlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dcnsakthi/intellica/pkg/models"
	"github.com/dcnsakthi/intellica/pkg/server/handlertools"
)

// CreateReviewsHandler godoc
//
//	@Summary		Creates or updates a batch of product reviews
//	@Description	Reviews without embeddings are queued for the review embedder task.
//	@Tags			review
//	@Accept			json
//	@Produce		json
//	@Param			reviews	body		[]models.Review	true	"Reviews"
//	@Success		200		{object}	string			"OK"
//	@Failure		400		{object}	APIError		"Bad Request"
//	@Failure		500		{object}	APIError		"Internal Server Error"
//	@Router			/api/v1/reviews [post]
func CreateReviewsHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var reviews []models.Review
		if err := handlertools.DecodeJSON(r, &reviews); err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}
		putReviews(appState, w, r, reviews)
	}
}

// CreateProductReviewsHandler godoc
//
//	@Summary		Creates or updates reviews for a single product
//	@Description	The product ID from the URL overrides any product ID in the payload.
//	@Tags			review
//	@Accept			json
//	@Produce		json
//	@Param			productId	path		string			true	"Product ID"
//	@Param			reviews		body		[]models.Review	true	"Reviews"
//	@Success		200			{object}	string			"OK"
//	@Failure		400			{object}	APIError		"Bad Request"
//	@Failure		500			{object}	APIError		"Internal Server Error"
//	@Router			/api/v1/products/{productId}/reviews [post]
func CreateProductReviewsHandler(appState *models.AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID := chi.URLParam(r, "productId")
		var reviews []models.Review
		if err := handlertools.DecodeJSON(r, &reviews); err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}
		for i := range reviews {
			reviews[i].ProductID = productID
		}
		putReviews(appState, w, r, reviews)
	}
}

func putReviews(
	appState *models.AppState,
	w http.ResponseWriter,
	r *http.Request,
	reviews []models.Review,
) {
	if len(reviews) == 0 {
		handlertools.RenderError(
			w,
			errors.New("at least one review is required"),
			http.StatusBadRequest,
		)
		return
	}

	saved, err := appState.DocStore.PutReviews(r.Context(), reviews)
	if err != nil {
		handlertools.RenderError(w, err, http.StatusInternalServerError)
		return
	}

	tasks := make([]models.ReviewEmbedTask, 0, len(saved))
	for _, review := range saved {
		if !review.IsEmbedded {
			tasks = append(tasks, models.ReviewEmbedTask{UUID: review.UUID})
		}
	}
	if len(tasks) > 0 {
		err = appState.TaskPublisher.Publish(models.ReviewEmbedderTopic, nil, tasks)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(OKResponse)); err != nil {
		handlertools.RenderError(w, err, http.StatusInternalServerError)
		return
	}
}

// GetProductReviewsHandler godoc
//
//	@Summary	Returns a product's reviews, most recent first
//	@Tags		review
//	@Accept		json
//	@Produce	json
//	@Param		productId	path		string	true	"Product ID"
//	@Param		limit		query		integer	false	"Maximum number of reviews"
//	@Success	200			{object}	[]models.Review
//	@Failure	500			{object}	APIError	"Internal Server Error"
//	@Router		/api/v1/products/{productId}/reviews [get]
func GetProductReviewsHandler(appState *models.AppState) http.HandlerFunc {
	store := appState.DocStore
	return func(w http.ResponseWriter, r *http.Request) {
		productID := chi.URLParam(r, "productId")
		limit, err := handlertools.IntFromQuery[int](r, "limit")
		if err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}
		if limit <= 0 {
			limit = appState.Config.Search.DefaultLimit
		}

		reviews, err := store.GetReviewsForProduct(r.Context(), productID, limit)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		if err := handlertools.EncodeJSON(w, reviews); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// GetReviewSummaryHandler godoc
//
//	@Summary	Returns aggregated review counts and ratings for a product
//	@Tags		review
//	@Accept		json
//	@Produce	json
//	@Param		productId	path		string	true	"Product ID"
//	@Success	200			{object}	models.ReviewSummary
//	@Failure	500			{object}	APIError	"Internal Server Error"
//	@Router		/api/v1/products/{productId}/reviews/summary [get]
func GetReviewSummaryHandler(appState *models.AppState) http.HandlerFunc {
	store := appState.DocStore
	return func(w http.ResponseWriter, r *http.Request) {
		productID := chi.URLParam(r, "productId")

		summary, err := store.GetReviewSummary(r.Context(), productID)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		if err := handlertools.EncodeJSON(w, summary); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// GetTopRatedProductsHandler godoc
//
//	@Summary	Returns products ranked by average review rating
//	@Tags		review
//	@Accept		json
//	@Produce	json
//	@Param		min_reviews	query		integer	false	"Minimum review count per product"
//	@Param		limit		query		integer	false	"Maximum number of products"
//	@Success	200			{object}	[]models.RatedProduct
//	@Failure	500			{object}	APIError	"Internal Server Error"
//	@Router		/api/v1/products/top-rated [get]
func GetTopRatedProductsHandler(appState *models.AppState) http.HandlerFunc {
	store := appState.DocStore
	catalog := appState.CatalogStore
	return func(w http.ResponseWriter, r *http.Request) {
		minReviews, err := handlertools.IntFromQuery[int](r, "min_reviews")
		if err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}
		if minReviews <= 0 {
			minReviews = 1
		}
		limit, err := handlertools.IntFromQuery[int](r, "limit")
		if err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}
		if limit <= 0 {
			limit = appState.Config.Search.DefaultLimit
		}

		rated, err := store.GetTopRatedProducts(r.Context(), minReviews, limit)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		// Join the review aggregates with the product catalog. Reviews may
		// reference products that were never loaded into the catalog.
		for i := range rated {
			product, err := catalog.GetProduct(r.Context(), rated[i].ProductID)
			if err != nil {
				if errors.Is(err, models.ErrNotFound) {
					continue
				}
				handlertools.RenderError(w, err, http.StatusInternalServerError)
				return
			}
			rated[i].Product = *product
		}

		if err := handlertools.EncodeJSON(w, rated); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// SearchReviewsHandler godoc
//
//	@Summary		Searches reviews with an embedded text query
//	@Description	The query text is embedded and ranked against the stored review vectors.
//	@Tags			search
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		models.SearchPayload	true	"Search query"
//	@Success		200		{object}	[]models.ReviewSearchResult
//	@Failure		400		{object}	APIError	"Bad Request"
//	@Failure		500		{object}	APIError	"Internal Server Error"
//	@Router			/api/v1/reviews/search [post]
func SearchReviewsHandler(appState *models.AppState) http.HandlerFunc {
	store := appState.DocStore
	return func(w http.ResponseWriter, r *http.Request) {
		var payload models.SearchPayload
		if err := handlertools.DecodeJSON(r, &payload); err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}
		if err := validate.Struct(payload); err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}

		queryVector, err := embedQuery(r.Context(), appState, payload.Text)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		candidates, err := store.GetReviewEmbeddings(r.Context())
		if err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		ranked, err := rankCandidates(appState, queryVector, candidates, &payload)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		results := make([]models.ReviewSearchResult, len(ranked))
		for i := range ranked {
			results[i] = models.ReviewSearchResult{
				Review: &ranked[i].Record,
				Score:  ranked[i].Score,
			}
		}
		if err := handlertools.EncodeJSON(w, results); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}
