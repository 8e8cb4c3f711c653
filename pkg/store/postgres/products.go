package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/pgvector/pgvector-go"
	"github.com/uptrace/bun"

	"github.com/dcnsakthi/intellica/pkg/models"
	"github.com/dcnsakthi/intellica/pkg/store"
)

func productSchemaToModel(schema *ProductSchema) (*models.Product, error) {
	product := &models.Product{}
	err := copier.CopyWithOption(product, schema, copier.Option{IgnoreEmpty: true})
	if err != nil {
		return nil, store.NewStorageError("unable to copy product", err)
	}
	if schema.Embedding != nil {
		product.Embedding = schema.Embedding.Slice()
	}
	return product, nil
}

func productModelToSchema(product *models.Product) (*ProductSchema, error) {
	schema := &ProductSchema{}
	err := copier.CopyWithOption(schema, product, copier.Option{IgnoreEmpty: true})
	if err != nil {
		return nil, store.NewStorageError("unable to copy product", err)
	}
	if len(product.Embedding) > 0 {
		embedding := pgvector.NewVector(product.Embedding)
		schema.Embedding = &embedding
		schema.IsEmbedded = true
	}
	return schema, nil
}

func productSchemasToModels(schemas []ProductSchema) ([]models.Product, error) {
	products := make([]models.Product, len(schemas))
	for i := range schemas {
		product, err := productSchemaToModel(&schemas[i])
		if err != nil {
			return nil, err
		}
		products[i] = *product
	}
	return products, nil
}

// putProducts upserts products keyed on ProductID and returns the saved
// records with their UUIDs populated.
func putProducts(ctx context.Context, db *bun.DB, products []models.Product) ([]models.Product, error) {
	if len(products) == 0 {
		return []models.Product{}, nil
	}

	schemas := make([]ProductSchema, len(products))
	for i := range products {
		schema, err := productModelToSchema(&products[i])
		if err != nil {
			return nil, err
		}
		if schema.UUID == uuid.Nil {
			schema.UUID = uuid.New()
		}
		schemas[i] = *schema
	}

	_, err := db.NewInsert().
		Model(&schemas).
		On("CONFLICT (product_id) DO UPDATE").
		Set("sku = EXCLUDED.sku").
		Set("name = EXCLUDED.name").
		Set("brand = EXCLUDED.brand").
		Set("category = EXCLUDED.category").
		Set("subcategory = EXCLUDED.subcategory").
		Set("description = EXCLUDED.description").
		Set("price = EXCLUDED.price").
		Set("cost = EXCLUDED.cost").
		Set("stock_quantity = EXCLUDED.stock_quantity").
		Set("is_active = EXCLUDED.is_active").
		// A fresh embedding replaces the stored one. A changed description
		// invalidates the stored embedding so the embedder task runs again.
		Set("embedding = CASE WHEN EXCLUDED.is_embedded THEN EXCLUDED.embedding ELSE p.embedding END").
		Set("is_embedded = CASE " +
			"WHEN EXCLUDED.is_embedded THEN true " +
			"WHEN p.description IS DISTINCT FROM EXCLUDED.description THEN false " +
			"ELSE p.is_embedded END").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, store.NewStorageError("failed to put products", err)
	}

	return productSchemasToModels(schemas)
}

func getProduct(ctx context.Context, db *bun.DB, productID string) (*models.Product, error) {
	schema := &ProductSchema{}
	err := db.NewSelect().
		Model(schema).
		Where("product_id = ?", productID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewNotFoundError("product " + productID)
		}
		return nil, store.NewStorageError("failed to get product", err)
	}

	return productSchemaToModel(schema)
}

// getProductEmbeddings returns all active, embedded products. This is the candidate
// set for in-memory similarity ranking.
func getProductEmbeddings(ctx context.Context, db *bun.DB) ([]models.Product, error) {
	var schemas []ProductSchema
	err := db.NewSelect().
		Model(&schemas).
		Where("is_embedded = true").
		Where("is_active = true").
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, store.NewStorageError("failed to get product embeddings", err)
	}

	return productSchemasToModels(schemas)
}

func getProductsByCategory(
	ctx context.Context,
	db *bun.DB,
	category string,
	excludeID string,
	price float64,
	limit int,
) ([]models.Product, error) {
	if limit <= 0 {
		return []models.Product{}, nil
	}

	var schemas []ProductSchema
	err := db.NewSelect().
		Model(&schemas).
		Where("category = ?", category).
		Where("is_active = true").
		Where("product_id != ?", excludeID).
		OrderExpr("abs(price - ?) ASC", price).
		Order("product_id ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, store.NewStorageError("failed to get products by category", err)
	}

	return productSchemasToModels(schemas)
}

func listProducts(
	ctx context.Context,
	db *bun.DB,
	cursor int64,
	limit int,
) ([]models.Product, error) {
	var schemas []ProductSchema
	query := db.NewSelect().
		Model(&schemas).
		Order("id ASC")
	if cursor > 0 {
		query = query.Where("id > ?", cursor)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Scan(ctx)
	if err != nil {
		return nil, store.NewStorageError("failed to list products", err)
	}

	return productSchemasToModels(schemas)
}

// searchProductsText matches the query text against product name, brand, and
// description with a case insensitive substring match.
func searchProductsText(
	ctx context.Context,
	db *bun.DB,
	query string,
	category string,
	limit int,
) ([]models.Product, error) {
	if query == "" || limit <= 0 {
		return []models.Product{}, nil
	}

	pattern := "%" + query + "%"
	var schemas []ProductSchema
	q := db.NewSelect().
		Model(&schemas).
		Where("is_active = true").
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				WhereOr("name ILIKE ?", pattern).
				WhereOr("brand ILIKE ?", pattern).
				WhereOr("description ILIKE ?", pattern)
		}).
		Order("name ASC").
		Order("product_id ASC").
		Limit(limit)
	if category != "" {
		q = q.Where("category = ?", category)
	}
	err := q.Scan(ctx)
	if err != nil {
		return nil, store.NewStorageError("failed to search products", err)
	}

	return productSchemasToModels(schemas)
}

func getProductCategories(ctx context.Context, db *bun.DB) ([]models.ProductCategory, error) {
	var categories []models.ProductCategory
	err := db.NewSelect().
		Model((*ProductSchema)(nil)).
		ColumnExpr("category").
		ColumnExpr("count(*) AS count").
		Where("is_active = true").
		GroupExpr("category").
		OrderExpr("category ASC").
		Scan(ctx, &categories)
	if err != nil {
		return nil, store.NewStorageError("failed to get product categories", err)
	}

	return categories, nil
}

func getProductsByUUID(
	ctx context.Context,
	db *bun.DB,
	uuids []uuid.UUID,
) ([]models.Product, error) {
	if len(uuids) == 0 {
		return []models.Product{}, nil
	}

	var schemas []ProductSchema
	err := db.NewSelect().
		Model(&schemas).
		Where("uuid IN (?)", bun.In(uuids)).
		Scan(ctx)
	if err != nil {
		return nil, store.NewStorageError("failed to get products by uuid", err)
	}

	return productSchemasToModels(schemas)
}

// putProductEmbeddings updates the embedding vectors for the given products and
// marks them embedded. The embedding width must match the configured width.
func putProductEmbeddings(
	ctx context.Context,
	appState *models.AppState,
	db *bun.DB,
	products []models.Product,
) error {
	if len(products) == 0 {
		return nil
	}

	configuredWidth := appState.Config.Embeddings.Dimensions
	for i := range products {
		if len(products[i].Embedding) != configuredWidth {
			return store.NewEmbeddingMismatchError(
				fmt.Errorf(
					"product %s embedding width %d, configured width %d",
					products[i].ProductID,
					len(products[i].Embedding),
					configuredWidth,
				),
			)
		}
	}

	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for i := range products {
			_, err := tx.NewUpdate().
				Model((*ProductSchema)(nil)).
				Set("embedding = ?", pgvector.NewVector(products[i].Embedding)).
				Set("is_embedded = true").
				Where("uuid = ?", products[i].UUID).
				Exec(ctx)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return store.NewStorageError("failed to put product embeddings", err)
	}

	return nil
}
