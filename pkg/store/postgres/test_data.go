package postgres

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dbfixture"
	"github.com/uptrace/bun/extra/bundebug"
	"gopkg.in/yaml.v3"

	"github.com/dcnsakthi/intellica/pkg/models"
)

type Row interface {
	CustomerSchema | ProductSchema | OrderSchema | OrderItemSchema
}

type FixtureModel[T Row] struct {
	Model string `yaml:"model"`
	Rows  []T    `yaml:"rows"`
}

type Fixtures[T Row] []FixtureModel[T]

func generateTimeLastNDays(nDays int) time.Time {
	now := time.Now()
	windowStart := now.Add(time.Duration(-nDays) * 24 * time.Hour)
	return gofakeit.DateRange(windowStart, now)
}

var productCategories = []string{
	"electronics", "audio", "wearables", "home", "kitchen", "outdoors",
}

var productSubcategories = []string{
	"essentials", "accessories", "pro series", "compact", "wireless", "classic",
}

// gofakeit has no product faker, so names and descriptions are built from
// its word lists.
func fakeProductName() string {
	return titleWord(gofakeit.Adjective()) + " " + titleWord(gofakeit.NounConcrete())
}

func fakeProductDescription() string {
	return fmt.Sprintf(
		"A %s %s %s. %s",
		gofakeit.AdjectiveDescriptive(),
		gofakeit.Adjective(),
		gofakeit.NounConcrete(),
		gofakeit.Sentence(10),
	)
}

func titleWord(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + word[1:]
}

// GenerateFixtureData generates random customer, product and order fixtures and
// writes them to YAML files in outputDir.
func GenerateFixtureData(fixtureCount int, outputDir string) {
	fakerGlobal := gofakeit.NewUnlocked(0)
	gofakeit.SetGlobalFaker(fakerGlobal)

	// Generate test data for CustomerSchema
	customers := make([]CustomerSchema, fixtureCount)
	for i := 0; i < fixtureCount; i++ {
		dateCreated := generateTimeLastNDays(14)
		customers[i] = CustomerSchema{
			UUID:          uuid.New(),
			CreatedAt:     dateCreated,
			UpdatedAt:     dateCreated,
			CustomerID:    strings.ToLower(gofakeit.Username()),
			FirstName:     gofakeit.FirstName(),
			LastName:      gofakeit.LastName(),
			Email:         gofakeit.Email(),
			Segment:       gofakeit.RandomString([]string{"consumer", "corporate", "home_office"}),
			City:          gofakeit.City(),
			Country:       gofakeit.Country(),
			LifetimeValue: gofakeit.Price(50, 20000),
		}
	}

	// Generate test data for ProductSchema
	products := make([]ProductSchema, fixtureCount)
	for i := 0; i < fixtureCount; i++ {
		dateCreated := generateTimeLastNDays(14)
		price := gofakeit.Price(5, 2000)
		gofakeit.ShuffleStrings(productCategories)
		products[i] = ProductSchema{
			UUID:          uuid.New(),
			CreatedAt:     dateCreated,
			UpdatedAt:     dateCreated,
			ProductID:     fmt.Sprintf("PROD-%04d", i+1),
			SKU:           strings.ToUpper(gofakeit.LetterN(3)) + gofakeit.DigitN(5),
			Name:          fakeProductName(),
			Brand:         gofakeit.Company(),
			Category:      productCategories[0],
			Subcategory:   gofakeit.RandomString(productSubcategories),
			Description:   fakeProductDescription(),
			Price:         price,
			Cost:          price * 0.6,
			StockQuantity: gofakeit.Number(0, 500),
			IsActive:      gofakeit.Number(0, 9) > 0, // roughly 10% inactive
		}
	}

	// Generate test data for OrderSchema and OrderItemSchema
	var orders []OrderSchema
	var items []OrderItemSchema
	for i := 0; i < fixtureCount; i++ {
		orderCount := gofakeit.Number(1, 5)
		for j := 0; j < orderCount; j++ {
			orderDate := generateTimeLastNDays(14)
			orderID := gofakeit.UUID()
			itemCount := gofakeit.Number(1, 4)
			var total float64
			for k := 0; k < itemCount; k++ {
				product := products[gofakeit.Number(0, len(products)-1)]
				quantity := gofakeit.Number(1, 3)
				items = append(items, OrderItemSchema{
					UUID:      uuid.New(),
					OrderID:   orderID,
					ProductID: product.ProductID,
					Quantity:  quantity,
					UnitPrice: product.Price,
				})
				total += float64(quantity) * product.Price
			}
			orders = append(orders, OrderSchema{
				UUID:        uuid.New(),
				OrderID:     orderID,
				CreatedAt:   orderDate,
				CustomerID:  customers[i].CustomerID,
				OrderDate:   orderDate,
				Status:      gofakeit.RandomString([]string{"pending", "shipped", "delivered", "returned"}),
				TotalAmount: total,
			})
		}
	}

	customerFixture := Fixtures[CustomerSchema]{
		{
			Model: "CustomerSchema",
			Rows:  customers,
		},
	}

	productFixture := Fixtures[ProductSchema]{
		{
			Model: "ProductSchema",
			Rows:  products,
		},
	}

	orderFixture := Fixtures[OrderSchema]{
		{
			Model: "OrderSchema",
			Rows:  orders,
		},
	}

	itemFixture := Fixtures[OrderItemSchema]{
		{
			Model: "OrderItemSchema",
			Rows:  items,
		},
	}

	if outputDir == "" {
		outputDir = "./"
	} else {
		// Create output directory if it doesn't exist
		if _, err := os.Stat(outputDir); os.IsNotExist(err) {
			err = os.Mkdir(outputDir, 0755)
			if err != nil {
				fmt.Printf("unable to create %s: %v", outputDir, err)
				return
			}
		}
	}

	// Write fixtures to YAML files
	writeFixtureToYAML(customerFixture, outputDir, "customer_fixtures.yaml")
	writeFixtureToYAML(productFixture, outputDir, "product_fixtures.yaml")
	writeFixtureToYAML(orderFixture, outputDir, "order_fixtures.yaml")
	writeFixtureToYAML(itemFixture, outputDir, "order_item_fixtures.yaml")
}

func writeFixtureToYAML[T Row](fixtures Fixtures[T], outputDir, filename string) {
	// Marshal the fixture into YAML
	data, err := yaml.Marshal(&fixtures)
	if err != nil {
		fmt.Printf("error: %v", err)
		return
	}

	// Write the YAML data to a file
	file, err := os.Create(filepath.Join(outputDir, filename))
	if err != nil {
		fmt.Printf("error: %v", err)
		return
	}
	defer func(file *os.File) {
		err := file.Close()
		if err != nil {
			fmt.Printf("error: %v", err)
			return
		}
	}(file)

	_, err = file.Write(data)
	if err != nil {
		fmt.Printf("error: %v", err)
		return
	}

	fmt.Printf("Fixtures generated successfully in %s!\n", filename)
}

// addTestProductEmbeddings assigns random unit vectors to most products.
// A small share is left unembedded so the fallback path has data to exercise.
func addTestProductEmbeddings(
	ctx context.Context,
	appState *models.AppState,
	db *bun.DB,
) error {
	width := appState.Config.Embeddings.Dimensions
	if width == 0 {
		width = 1536
	}

	var schemas []ProductSchema
	err := db.NewSelect().
		Model(&schemas).
		Scan(ctx)
	if err != nil {
		return fmt.Errorf("failed to query products: %w", err)
	}

	for i := range schemas {
		// 10% of products stay unembedded
		if rand.Float32() < 0.1 { //nolint:gosec
			continue
		}
		embedding := make([]float32, width)
		for j := range embedding {
			embedding[j] = rand.Float32() //nolint:gosec
		}
		_, err = db.NewUpdate().
			Model((*ProductSchema)(nil)).
			Set("embedding = ?", pgvector.NewVector(embedding)).
			Set("is_embedded = true").
			Where("uuid = ?", schemas[i].UUID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to set product embedding: %w", err)
		}
	}

	return nil
}

// LoadFixtures drops and recreates the schema, then loads the fixture YAML
// files in fixturePath.
func LoadFixtures(
	ctx context.Context,
	appState *models.AppState,
	db *bun.DB,
	fixturePath string,
) error {
	db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))

	dropSchemaQuery := `DROP SCHEMA public CASCADE;
CREATE SCHEMA public;
GRANT ALL ON SCHEMA public TO postgres;
GRANT ALL ON SCHEMA public TO public;`

	_, err := db.ExecContext(ctx, dropSchemaQuery)
	if err != nil {
		return fmt.Errorf("failed to drop schema: %w", err)
	}

	// Enable vector extension
	err = enablePgVectorExtension(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to enable pg_vector extension: %w", err)
	}

	err = CreateSchema(ctx, appState, db)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	db.RegisterModel(
		(*CustomerSchema)(nil),
		(*ProductSchema)(nil),
		(*OrderSchema)(nil),
		(*OrderItemSchema)(nil),
	)

	fixture := dbfixture.New(db, dbfixture.WithRecreateTables())

	files, err := os.ReadDir(fixturePath)
	if err != nil {
		return fmt.Errorf("failed to read directory: %w", err)
	}

	for _, file := range files {
		if !file.IsDir() {
			switch filepath.Ext(file.Name()) {
			case ".yaml", ".yml":
				err := fixture.Load(ctx, os.DirFS(fixturePath), file.Name())
				if err != nil {
					return fmt.Errorf("failed to load fixture %s: %w", file.Name(), err)
				}
			}
		}
	}

	err = addTestProductEmbeddings(ctx, appState, db)
	if err != nil {
		return fmt.Errorf("failed to add product embeddings: %w", err)
	}

	return nil
}
