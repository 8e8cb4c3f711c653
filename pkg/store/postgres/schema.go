package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/dcnsakthi/intellica/internal"
	"github.com/dcnsakthi/intellica/pkg/models"
)

var log = internal.GetLogger()

type CustomerSchema struct {
	bun.BaseModel `bun:"table:customer,alias:c" yaml:"-"`

	UUID          uuid.UUID `bun:",pk,type:uuid,default:gen_random_uuid()"                     yaml:"uuid,omitempty"`
	ID            int64     `bun:",autoincrement"                                              yaml:"id,omitempty"` // used as a cursor for pagination
	CustomerID    string    `bun:",unique,notnull"                                             yaml:"customer_id,omitempty"`
	CreatedAt     time.Time `bun:"type:timestamptz,nullzero,notnull,default:current_timestamp" yaml:"created_at,omitempty"`
	UpdatedAt     time.Time `bun:"type:timestamptz,nullzero,notnull,default:current_timestamp" yaml:"updated_at,omitempty"`
	DeletedAt     time.Time `bun:"type:timestamptz,soft_delete,nullzero"                       yaml:"deleted_at,omitempty"`
	FirstName     string    `bun:",notnull"                                                    yaml:"first_name,omitempty"`
	LastName      string    `bun:",notnull"                                                    yaml:"last_name,omitempty"`
	Email         string    `bun:",notnull"                                                    yaml:"email,omitempty"`
	Segment       string    `bun:","                                                           yaml:"segment,omitempty"`
	City          string    `bun:","                                                           yaml:"city,omitempty"`
	Country       string    `bun:","                                                           yaml:"country,omitempty"`
	LifetimeValue float64   `bun:",nullzero"                                                   yaml:"lifetime_value,omitempty"`
}

var _ bun.BeforeAppendModelHook = (*CustomerSchema)(nil)

func (s *CustomerSchema) BeforeAppendModel(_ context.Context, query bun.Query) error {
	if _, ok := query.(*bun.UpdateQuery); ok {
		s.UpdatedAt = time.Now()
	}
	return nil
}

// BeforeCreateTable is a marker method to ensure uniform interface across all table models - used in table creation iterator
func (s *CustomerSchema) BeforeCreateTable(
	_ context.Context,
	_ *bun.CreateTableQuery,
) error {
	return nil
}

type OrderSchema struct {
	bun.BaseModel `bun:"table:purchase_order,alias:o" yaml:"-"`

	UUID        uuid.UUID       `bun:",pk,type:uuid,default:gen_random_uuid()"                      yaml:"uuid,omitempty"`
	ID          int64           `bun:",autoincrement"                                               yaml:"id,omitempty"`
	OrderID     string          `bun:",unique,notnull"                                              yaml:"order_id,omitempty"`
	CreatedAt   time.Time       `bun:"type:timestamptz,nullzero,notnull,default:current_timestamp"  yaml:"created_at,omitempty"`
	DeletedAt   time.Time       `bun:"type:timestamptz,soft_delete,nullzero"                        yaml:"deleted_at,omitempty"`
	CustomerID  string          `bun:",notnull"                                                     yaml:"customer_id,omitempty"`
	OrderDate   time.Time       `bun:"type:timestamptz,notnull"                                     yaml:"order_date,omitempty"`
	Status      string          `bun:",notnull"                                                     yaml:"status,omitempty"`
	TotalAmount float64         `bun:",notnull"                                                     yaml:"total_amount,omitempty"`
	Customer    *CustomerSchema `bun:"rel:belongs-to,join:customer_id=customer_id,on_delete:cascade" yaml:"-"`
	Items       []*OrderItemSchema `bun:"rel:has-many,join:order_id=order_id"                       yaml:"-"`
}

var _ bun.BeforeAppendModelHook = (*OrderSchema)(nil)

func (s *OrderSchema) BeforeAppendModel(_ context.Context, _ bun.Query) error {
	return nil
}

func (s *OrderSchema) BeforeCreateTable(
	_ context.Context,
	_ *bun.CreateTableQuery,
) error {
	return nil
}

type OrderItemSchema struct {
	bun.BaseModel `bun:"table:purchase_order_item,alias:oi" yaml:"-"`

	UUID      uuid.UUID    `bun:",pk,type:uuid,default:gen_random_uuid()"                    yaml:"uuid,omitempty"`
	ID        int64        `bun:",autoincrement"                                             yaml:"id,omitempty"`
	DeletedAt time.Time    `bun:"type:timestamptz,soft_delete,nullzero"                      yaml:"deleted_at,omitempty"`
	OrderID   string       `bun:",notnull"                                                   yaml:"order_id,omitempty"`
	ProductID string       `bun:",notnull"                                                   yaml:"product_id,omitempty"`
	Quantity  int          `bun:",notnull"                                                   yaml:"quantity,omitempty"`
	UnitPrice float64      `bun:",notnull"                                                   yaml:"unit_price,omitempty"`
	Order     *OrderSchema `bun:"rel:belongs-to,join:order_id=order_id,on_delete:cascade"    yaml:"-"`
}

var _ bun.BeforeAppendModelHook = (*OrderItemSchema)(nil)

func (s *OrderItemSchema) BeforeAppendModel(_ context.Context, _ bun.Query) error {
	return nil
}

func (s *OrderItemSchema) BeforeCreateTable(
	_ context.Context,
	_ *bun.CreateTableQuery,
) error {
	return nil
}

// ProductSchema stores the catalog including the product embedding.
type ProductSchema struct {
	bun.BaseModel `bun:"table:product,alias:p" yaml:"-"`

	UUID          uuid.UUID        `bun:",pk,type:uuid,default:gen_random_uuid()"                     yaml:"uuid,omitempty"`
	ID            int64            `bun:",autoincrement"                                              yaml:"id,omitempty"`
	ProductID     string           `bun:",unique,notnull"                                             yaml:"product_id,omitempty"`
	CreatedAt     time.Time        `bun:"type:timestamptz,nullzero,notnull,default:current_timestamp" yaml:"created_at,omitempty"`
	UpdatedAt     time.Time        `bun:"type:timestamptz,nullzero,notnull,default:current_timestamp" yaml:"updated_at,omitempty"`
	DeletedAt     time.Time        `bun:"type:timestamptz,soft_delete,nullzero"                       yaml:"deleted_at,omitempty"`
	SKU           string           `bun:","                                                           yaml:"sku,omitempty"`
	Name          string           `bun:",notnull"                                                    yaml:"name,omitempty"`
	Brand         string           `bun:","                                                           yaml:"brand,omitempty"`
	Category      string           `bun:",notnull"                                                    yaml:"category,omitempty"`
	Subcategory   string           `bun:","                                                           yaml:"subcategory,omitempty"`
	Description   string           `bun:",nullzero"                                                   yaml:"description,omitempty"`
	Price         float64          `bun:",notnull"                                                    yaml:"price,omitempty"`
	Cost          float64          `bun:",nullzero"                                                   yaml:"cost,omitempty"`
	StockQuantity int              `bun:",nullzero"                                                   yaml:"stock_quantity,omitempty"`
	IsActive      bool             `bun:"type:bool,notnull,default:true"                              yaml:"is_active,omitempty"`
	Embedding     *pgvector.Vector `bun:"type:vector(1536),nullzero"                                  yaml:"-"`
	IsEmbedded    bool             `bun:"type:bool,notnull,default:false"                             yaml:"is_embedded,omitempty"`
}

var _ bun.BeforeAppendModelHook = (*ProductSchema)(nil)

func (s *ProductSchema) BeforeAppendModel(_ context.Context, query bun.Query) error {
	if _, ok := query.(*bun.UpdateQuery); ok {
		s.UpdatedAt = time.Now()
	}
	return nil
}

func (s *ProductSchema) BeforeCreateTable(
	_ context.Context,
	_ *bun.CreateTableQuery,
) error {
	return nil
}

func (*CustomerSchema) AfterCreateTable(
	ctx context.Context,
	query *bun.CreateTableQuery,
) error {
	_, err := query.DB().NewCreateIndex().
		Model((*CustomerSchema)(nil)).
		Index("customer_customer_id_idx").
		Column("customer_id").
		IfNotExists().
		Exec(ctx)
	return err
}

func (*OrderSchema) AfterCreateTable(
	ctx context.Context,
	query *bun.CreateTableQuery,
) error {
	_, err := query.DB().NewCreateIndex().
		Model((*OrderSchema)(nil)).
		Index("purchase_order_customer_id_idx").
		Column("customer_id").
		IfNotExists().
		Exec(ctx)
	return err
}

func (*OrderItemSchema) AfterCreateTable(
	ctx context.Context,
	query *bun.CreateTableQuery,
) error {
	_, err := query.DB().NewCreateIndex().
		Model((*OrderItemSchema)(nil)).
		Index("purchase_order_item_order_id_idx").
		Column("order_id").
		IfNotExists().
		Exec(ctx)
	return err
}

func (*ProductSchema) AfterCreateTable(
	ctx context.Context,
	query *bun.CreateTableQuery,
) error {
	_, err := query.DB().NewCreateIndex().
		Model((*ProductSchema)(nil)).
		Index("product_product_id_idx").
		Column("product_id").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return err
	}

	_, err = query.DB().NewCreateIndex().
		Model((*ProductSchema)(nil)).
		Index("product_category_idx").
		Column("category").
		IfNotExists().
		Exec(ctx)
	return err
}

var tableList = []bun.BeforeCreateTableHook{
	&OrderItemSchema{},
	&OrderSchema{},
	&ProductSchema{},
	&CustomerSchema{},
}

// enablePgVectorExtension creates the pgvector extension if it does not exist and updates it if it is out of date.
func enablePgVectorExtension(ctx context.Context, db *bun.DB) error {
	// Create pgvector extension if it does not exist
	_, err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return fmt.Errorf("error creating pgvector extension: %w", err)
	}

	// if this is an upgrade, we may need to update the pgvector extension
	// this is a no-op if the extension is already up to date
	_, err = db.Exec("ALTER EXTENSION vector UPDATE")
	if err != nil {
		return fmt.Errorf("error updating pgvector extension: %w", err)
	}

	return nil
}

// CreateSchema creates the db schema if it does not exist.
func CreateSchema(
	ctx context.Context,
	appState *models.AppState,
	db *bun.DB,
) error {
	// iterate through tableList in reverse order to create tables with foreign keys first
	for i := len(tableList) - 1; i >= 0; i-- {
		schema := tableList[i]
		_, err := db.NewCreateTable().
			Model(schema).
			IfNotExists().
			WithForeignKeys().
			Exec(ctx)
		if err != nil {
			// bun still trying to create indexes despite IfNotExists flag
			if strings.Contains(err.Error(), "already exists") {
				continue
			}
			return fmt.Errorf("error creating table for schema %T: %w", schema, err)
		}
	}

	// check that the product embedding dimensions match the configured model
	if err := checkProductEmbeddingDims(ctx, appState, db); err != nil {
		return fmt.Errorf("error checking product embedding dimensions: %w", err)
	}

	return nil
}

// checkProductEmbeddingDims checks the width of the product embedding column against the
// configured embedding width. If they do not match, the column is migrated, dropping
// any existing embeddings.
func checkProductEmbeddingDims(
	ctx context.Context,
	appState *models.AppState,
	db *bun.DB,
) error {
	configuredWidth := appState.Config.Embeddings.Dimensions

	width, err := getEmbeddingColumnWidth(ctx, "product", db)
	if err != nil {
		return fmt.Errorf("error getting product embedding column width: %w", err)
	}

	if width != configuredWidth {
		log.Warnf(
			"product embedding width of %d does not match configured width of %d. "+
				"migrating embedding column and dropping existing embeddings",
			width,
			configuredWidth,
		)
		if err := MigrateProductEmbeddingDims(ctx, db, configuredWidth); err != nil {
			return fmt.Errorf("error migrating product embedding dims: %w", err)
		}
	}

	return nil
}

// getEmbeddingColumnWidth returns the width of the embedding column in the given table.
func getEmbeddingColumnWidth(ctx context.Context, tableName string, db *bun.DB) (int, error) {
	var width int
	err := db.NewSelect().
		ColumnExpr("atttypmod"). // vector width is stored in atttypmod
		TableExpr("pg_attribute").
		Where("attrelid = ?::regclass", tableName).
		Where("attname = 'embedding'").
		Scan(ctx, &width)
	if err != nil {
		// Things are broken if we can't get the width of the embedding column
		return 0, fmt.Errorf("error getting embedding column width: %w", err)
	}
	return width, nil
}

// MigrateProductEmbeddingDims drops the product embedding column and recreates it
// with the given dimensions. All existing embeddings are lost and products are
// marked as not embedded.
func MigrateProductEmbeddingDims(
	ctx context.Context,
	db *bun.DB,
	dimensions int,
) error {
	_, err := db.NewDropColumn().
		Model((*ProductSchema)(nil)).
		Column("embedding").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("error dropping column embedding: %w", err)
	}
	_, err = db.NewAddColumn().
		Model((*ProductSchema)(nil)).
		ColumnExpr(fmt.Sprintf("embedding vector(%d)", dimensions)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("error adding column embedding: %w", err)
	}
	_, err = db.NewUpdate().
		Model((*ProductSchema)(nil)).
		Set("is_embedded = false").
		Where("is_embedded = true").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("error resetting is_embedded: %w", err)
	}

	return nil
}

// NewPostgresConn creates a new bun.DB connection to a postgres database using the provided DSN.
// The connection is configured to pool connections based on the number of PROCs available.
func NewPostgresConn(appState *models.AppState) (*bun.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	maxOpenConns := 4 * runtime.GOMAXPROCS(0)

	sqldb := sql.OpenDB(
		pgdriver.NewConnector(
			pgdriver.WithDSN(appState.Config.Store.Postgres.DSN),
			pgdriver.WithReadTimeout(time.Minute),
		),
	)
	sqldb.SetMaxOpenConns(maxOpenConns)
	sqldb.SetMaxIdleConns(maxOpenConns)

	db := bun.NewDB(sqldb, pgdialect.New())

	// Enable pgvector extension
	err := enablePgVectorExtension(ctx, db)
	if err != nil {
		log.Print("error enabling pgvector extension: ", err)
		return nil, err
	}

	if err := checkPgVectorVersion(ctx, db); err != nil {
		return nil, err
	}

	return db, nil
}

// NewPostgresConnForQueue creates a plain database/sql connection for the task
// queue. The queue subscriber manages its own transactions and must not share
// the bun connection pool.
func NewPostgresConnForQueue(appState *models.AppState) (*sql.DB, error) {
	db := sql.OpenDB(
		pgdriver.NewConnector(
			pgdriver.WithDSN(appState.Config.Store.Postgres.DSN),
		),
	)
	return db, nil
}

// checkPgVectorVersion verifies that the installed vector extension is recent
// enough to support the vector column type used by the product schema.
func checkPgVectorVersion(ctx context.Context, db *bun.DB) error {
	const minVersion = "0.4.0"
	requiredVersion, err := semver.NewVersion(minVersion)
	if err != nil {
		return fmt.Errorf("error parsing required vector extension version: %w", err)
	}

	var version string
	err = db.NewSelect().
		Column("extversion").
		TableExpr("pg_extension").
		Where("extname = 'vector'").
		Scan(ctx, &version)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("vector extension not installed")
		}
		return fmt.Errorf("error checking vector extension version: %w", err)
	}

	thisVersion, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("error parsing vector extension version: %w", err)
	}

	if requiredVersion.GreaterThan(thisVersion) {
		return fmt.Errorf(
			"vector extension version %s is older than required version %s",
			version,
			minVersion,
		)
	}

	return nil
}
