package store

// BaseCatalogStore is the base implementation of a CatalogStore. Client is the underlying
// datastore client, such as a database connection.
type BaseCatalogStore[T any] struct {
	Client T
}
