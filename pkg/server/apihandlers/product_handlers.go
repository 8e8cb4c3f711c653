package apihandlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/dcnsakthi/intellica/pkg/models"
	"github.com/dcnsakthi/intellica/pkg/search"
	"github.com/dcnsakthi/intellica/pkg/server/handlertools"
)

const OKResponse = "OK"

var validate = validator.New()

// CreateProductsHandler godoc
//
//	@Summary		Creates or updates a batch of products
//	@Description	Products without embeddings are queued for the product embedder task.
//	@Tags			product
//	@Accept			json
//	@Produce		json
//	@Param			products	body		[]models.Product	true	"Products"
//	@Success		200			{object}	string				"OK"
//	@Failure		400			{object}	APIError			"Bad Request"
//	@Failure		500			{object}	APIError			"Internal Server Error"
//	@Router			/api/v1/products [post]
func CreateProductsHandler(appState *models.AppState) http.HandlerFunc {
	store := appState.CatalogStore
	return func(w http.ResponseWriter, r *http.Request) {
		var products []models.Product
		if err := handlertools.DecodeJSON(r, &products); err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}
		if len(products) == 0 {
			handlertools.RenderError(
				w,
				errors.New("at least one product is required"),
				http.StatusBadRequest,
			)
			return
		}

		saved, err := store.PutProducts(r.Context(), products)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		tasks := make([]models.ProductEmbedTask, 0, len(saved))
		for _, product := range saved {
			if !product.IsEmbedded {
				tasks = append(tasks, models.ProductEmbedTask{UUID: product.UUID})
			}
		}
		if len(tasks) > 0 {
			err = appState.TaskPublisher.Publish(models.ProductEmbedderTopic, nil, tasks)
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
}

// GetProductHandler godoc
//
//	@Summary	Returns a product by its product ID
//	@Tags		product
//	@Accept		json
//	@Produce	json
//	@Param		productId	path		string	true	"Product ID"
//	@Success	200			{object}	models.Product
//	@Failure	404			{object}	APIError	"Not Found"
//	@Failure	500			{object}	APIError	"Internal Server Error"
//	@Router		/api/v1/products/{productId} [get]
func GetProductHandler(appState *models.AppState) http.HandlerFunc {
	store := appState.CatalogStore
	return func(w http.ResponseWriter, r *http.Request) {
		productID := chi.URLParam(r, "productId")

		product, err := store.GetProduct(r.Context(), productID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				handlertools.RenderError(w, err, http.StatusNotFound)
				return
			}
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		if err := handlertools.EncodeJSON(w, product); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// GetProductListHandler godoc
//
//	@Summary	Returns a page of products
//	@Tags		product
//	@Accept		json
//	@Produce	json
//	@Param		cursor	query		int64	false	"Cursor, the internal ID of the last product seen"
//	@Param		limit	query		integer	false	"Page size"
//	@Success	200		{object}	[]models.Product
//	@Failure	500		{object}	APIError	"Internal Server Error"
//	@Router		/api/v1/products [get]
func GetProductListHandler(appState *models.AppState) http.HandlerFunc {
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

		products, err := store.ListProducts(r.Context(), cursor, limit)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		if err := handlertools.EncodeJSON(w, products); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// GetSimilarProductsHandler godoc
//
//	@Summary		Returns products similar to a source product
//	@Description	Ranks the embedded catalog by cosine similarity to the source product.
//	@Description	When the source has no embedding the response falls back to attribute
//	@Description	matching within the source's category and sets the fallback flag.
//	@Tags			product
//	@Accept			json
//	@Produce		json
//	@Param			productId	path		string	true	"Product ID"
//	@Param			limit		query		integer	false	"Maximum number of results"
//	@Param			min_score	query		number	false	"Similarity lower bound in [0,1]"
//	@Success		200			{object}	models.SimilarProductsResult
//	@Failure		404			{object}	APIError	"Not Found"
//	@Failure		500			{object}	APIError	"Internal Server Error"
//	@Router			/api/v1/products/{productId}/similar [get]
func GetSimilarProductsHandler(appState *models.AppState) http.HandlerFunc {
	store := appState.CatalogStore
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
		minScore, err := handlertools.FloatFromQuery[float64](
			r,
			"min_score",
			appState.Config.Search.MinScore,
		)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusBadRequest)
			return
		}

		source, err := store.GetProduct(r.Context(), productID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				handlertools.RenderError(w, err, http.StatusNotFound)
				return
			}
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		candidates, err := store.GetProductEmbeddings(r.Context())
		if err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		ranked, err := search.FindSimilarToRecord(*source, candidates, minScore, limit)
		if err != nil {
			if errors.Is(err, models.ErrNoEmbedding) {
				similarByAttributes(w, r, appState, source, limit)
				return
			}
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
		// An embedded source with no neighbors above the threshold still gets
		// attribute recommendations.
		if len(ranked) == 0 {
			similarByAttributes(w, r, appState, source, limit)
			return
		}

		result := models.SimilarProductsResult{
			Results: productResults(ranked),
		}
		if err := handlertools.EncodeJSON(w, result); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// similarByAttributes renders the attribute fallback for a source product
// without an embedding, or whose vector neighbors all fell below the
// score threshold.
func similarByAttributes(
	w http.ResponseWriter,
	r *http.Request,
	appState *models.AppState,
	source *models.Product,
	limit int,
) {
	candidates, err := appState.CatalogStore.GetProductsByCategory(
		r.Context(),
		source.Category,
		source.ProductID,
		source.Price,
		limit,
	)
	if err != nil {
		handlertools.RenderError(w, err, http.StatusInternalServerError)
		return
	}

	products := search.FallbackByAttributes(source, candidates, limit)
	results := make([]models.ProductSearchResult, len(products))
	for i := range products {
		results[i] = models.ProductSearchResult{Product: &products[i]}
	}

	result := models.SimilarProductsResult{
		Results:  results,
		Fallback: true,
	}
	if err := handlertools.EncodeJSON(w, result); err != nil {
		handlertools.RenderError(w, err, http.StatusInternalServerError)
		return
	}
}

// SearchProductsHandler godoc
//
//	@Summary		Searches the product catalog with an embedded text query
//	@Description	The query text is embedded and ranked against the stored product
//	@Description	vectors. Set search_type to "mmr" to diversify the results.
//	@Tags			search
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		models.SearchPayload	true	"Search query"
//	@Success		200		{object}	[]models.ProductSearchResult
//	@Failure		400		{object}	APIError	"Bad Request"
//	@Failure		500		{object}	APIError	"Internal Server Error"
//	@Router			/api/v1/products/search [post]
func SearchProductsHandler(appState *models.AppState) http.HandlerFunc {
	store := appState.CatalogStore
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

		candidates, err := store.GetProductEmbeddings(r.Context())
		if err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		ranked, err := rankCandidates(appState, queryVector, candidates, &payload)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		if err := handlertools.EncodeJSON(w, productResults(ranked)); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// SearchProductsTextHandler godoc
//
//	@Summary		Searches the product catalog by keyword
//	@Description	Matches the query text against product names, brands, and
//	@Description	descriptions without touching the embeddings.
//	@Tags			search
//	@Accept			json
//	@Produce		json
//	@Param			q			query		string	true	"Query text"
//	@Param			category	query		string	false	"Restrict to a category"
//	@Param			limit		query		integer	false	"Maximum number of results"
//	@Success		200			{object}	[]models.Product
//	@Failure		400			{object}	APIError	"Bad Request"
//	@Failure		500			{object}	APIError	"Internal Server Error"
//	@Router			/api/v1/products/search [get]
func SearchProductsTextHandler(appState *models.AppState) http.HandlerFunc {
	store := appState.CatalogStore
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		if query == "" {
			handlertools.RenderError(
				w,
				errors.New("q query parameter is required"),
				http.StatusBadRequest,
			)
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

		products, err := store.SearchProductsText(
			r.Context(),
			query,
			r.URL.Query().Get("category"),
			limit,
		)
		if err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		if err := handlertools.EncodeJSON(w, products); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

// GetProductCategoriesHandler godoc
//
//	@Summary		Returns the catalog's categories with product counts
//	@Tags			product
//	@Accept			json
//	@Produce		json
//	@Success		200	{object}	[]models.ProductCategory
//	@Failure		500	{object}	APIError	"Internal Server Error"
//	@Router			/api/v1/products/categories [get]
func GetProductCategoriesHandler(appState *models.AppState) http.HandlerFunc {
	store := appState.CatalogStore
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := store.GetProductCategories(r.Context())
		if err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}

		if err := handlertools.EncodeJSON(w, categories); err != nil {
			handlertools.RenderError(w, err, http.StatusInternalServerError)
			return
		}
	}
}

func productResults(ranked []search.ScoredRecord[models.Product]) []models.ProductSearchResult {
	results := make([]models.ProductSearchResult, len(ranked))
	for i := range ranked {
		results[i] = models.ProductSearchResult{
			Product: &ranked[i].Record,
			Score:   ranked[i].Score,
		}
	}
	return results
}
