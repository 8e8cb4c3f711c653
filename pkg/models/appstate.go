package models

import (
	"github.com/dcnsakthi/intellica/config"
)

// AppState is a struct that holds the state of the application
// Use cmd.NewAppState to create a new instance
type AppState struct {
	EmbeddingsClient EmbeddingsClient
	CatalogStore     CatalogStore
	DocStore         DocStore
	TaskRouter       TaskRouter
	TaskPublisher    TaskPublisher
	Config           *config.Config
}
