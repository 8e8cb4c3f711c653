package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/uptrace/bun"

	"github.com/dcnsakthi/intellica/pkg/models"
	"github.com/dcnsakthi/intellica/pkg/store"
)

// putCustomers upserts customers keyed on CustomerID.
func putCustomers(ctx context.Context, db *bun.DB, customers []models.Customer) error {
	if len(customers) == 0 {
		return nil
	}

	schemas := make([]CustomerSchema, len(customers))
	for i := range customers {
		schema := CustomerSchema{}
		err := copier.CopyWithOption(&schema, &customers[i], copier.Option{IgnoreEmpty: true})
		if err != nil {
			return store.NewStorageError("unable to copy customer", err)
		}
		if schema.UUID == uuid.Nil {
			schema.UUID = uuid.New()
		}
		schemas[i] = schema
	}

	_, err := db.NewInsert().
		Model(&schemas).
		On("CONFLICT (customer_id) DO UPDATE").
		Set("first_name = EXCLUDED.first_name").
		Set("last_name = EXCLUDED.last_name").
		Set("email = EXCLUDED.email").
		Set("segment = EXCLUDED.segment").
		Set("city = EXCLUDED.city").
		Set("country = EXCLUDED.country").
		Set("lifetime_value = EXCLUDED.lifetime_value").
		Exec(ctx)
	if err != nil {
		return store.NewStorageError("failed to put customers", err)
	}

	return nil
}

func getCustomer(ctx context.Context, db *bun.DB, customerID string) (*models.Customer, error) {
	schema := &CustomerSchema{}
	err := db.NewSelect().
		Model(schema).
		Where("customer_id = ?", customerID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.NewNotFoundError("customer " + customerID)
		}
		return nil, store.NewStorageError("failed to get customer", err)
	}

	customer := &models.Customer{}
	err = copier.CopyWithOption(customer, schema, copier.Option{IgnoreEmpty: true})
	if err != nil {
		return nil, store.NewStorageError("unable to copy customer", err)
	}

	return customer, nil
}

func listCustomers(
	ctx context.Context,
	db *bun.DB,
	cursor int64,
	limit int,
) ([]models.Customer, error) {
	var schemas []CustomerSchema
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
		return nil, store.NewStorageError("failed to list customers", err)
	}

	customers := make([]models.Customer, len(schemas))
	for i := range schemas {
		err = copier.CopyWithOption(&customers[i], &schemas[i], copier.Option{IgnoreEmpty: true})
		if err != nil {
			return nil, store.NewStorageError("unable to copy customer", err)
		}
	}

	return customers, nil
}

// getCustomerOrders returns a customer's orders with their items, most recent first.
func getCustomerOrders(
	ctx context.Context,
	db *bun.DB,
	customerID string,
	limit int,
) ([]models.Order, error) {
	var schemas []OrderSchema
	query := db.NewSelect().
		Model(&schemas).
		Relation("Items").
		Where("o.customer_id = ?", customerID).
		Order("order_date DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Scan(ctx)
	if err != nil {
		return nil, store.NewStorageError("failed to get customer orders", err)
	}

	orders := make([]models.Order, len(schemas))
	for i := range schemas {
		err = copier.CopyWithOption(&orders[i], &schemas[i], copier.Option{IgnoreEmpty: true})
		if err != nil {
			return nil, store.NewStorageError("unable to copy order", err)
		}
		items := make([]models.OrderItem, len(schemas[i].Items))
		for j, item := range schemas[i].Items {
			err = copier.CopyWithOption(&items[j], item, copier.Option{IgnoreEmpty: true})
			if err != nil {
				return nil, store.NewStorageError("unable to copy order item", err)
			}
		}
		orders[i].Items = items
	}

	return orders, nil
}

// putOrders creates orders and their items in a single transaction.
func putOrders(ctx context.Context, db *bun.DB, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	orderSchemas := make([]OrderSchema, len(orders))
	var itemSchemas []OrderItemSchema
	for i := range orders {
		schema := OrderSchema{}
		err := copier.CopyWithOption(&schema, &orders[i], copier.Option{IgnoreEmpty: true})
		if err != nil {
			return store.NewStorageError("unable to copy order", err)
		}
		if schema.UUID == uuid.Nil {
			schema.UUID = uuid.New()
		}
		orderSchemas[i] = schema

		for _, item := range orders[i].Items {
			itemSchema := OrderItemSchema{}
			err = copier.CopyWithOption(&itemSchema, &item, copier.Option{IgnoreEmpty: true})
			if err != nil {
				return store.NewStorageError("unable to copy order item", err)
			}
			if itemSchema.UUID == uuid.Nil {
				itemSchema.UUID = uuid.New()
			}
			itemSchema.OrderID = orders[i].OrderID
			itemSchemas = append(itemSchemas, itemSchema)
		}
	}

	err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().
			Model(&orderSchemas).
			On("CONFLICT (order_id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
		if len(itemSchemas) > 0 {
			_, err = tx.NewInsert().
				Model(&itemSchemas).
				Exec(ctx)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return store.NewStorageError("failed to put orders", err)
	}

	return nil
}
