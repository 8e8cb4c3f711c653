package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oiime/logrusbun"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"

	"github.com/dcnsakthi/intellica/config"
	"github.com/dcnsakthi/intellica/pkg/llms"
	"github.com/dcnsakthi/intellica/pkg/models"
	"github.com/dcnsakthi/intellica/pkg/server"
	"github.com/dcnsakthi/intellica/pkg/store/mongo"
	"github.com/dcnsakthi/intellica/pkg/store/postgres"
	"github.com/dcnsakthi/intellica/pkg/tasks"
)

const (
	ErrStoreTypeNotSet    = "store.type must be set"
	ErrPostgresDSNNotSet  = "store.postgres.dsn must be set"
	ErrDocStoreTypeNotSet = "docstore.type must be set"
	ErrMongoURINotSet     = "docstore.mongo.uri must be set"
	StoreTypePostgres     = "postgres"
	DocStoreTypeMongo     = "mongo"
)

// run is the entrypoint for the intellica server
func run() {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		log.Fatalf("Error configuring intellica: %s", err)
	}

	handleCLIOptions()

	log.Infof("Starting intellica server version %s", config.VersionString)

	config.SetLogLevel(cfg)
	appState := NewAppState(cfg)

	srv := server.Create(appState)

	log.Infof("Listening on: %s", srv.Addr)
	err = srv.ListenAndServe()
	if err != nil {
		log.Fatal(err)
	}
}

// NewAppState creates an AppState struct from the config file / ENV, initializes
// both stores and the task router, and creates the embeddings client
func NewAppState(cfg *config.Config) *models.AppState {
	ctx := context.Background()

	embeddingsClient, err := llms.NewEmbeddingsClient(ctx, cfg)
	if err != nil {
		log.Fatalf("Error creating embeddings client: %s", err)
	}

	appState := &models.AppState{
		EmbeddingsClient: embeddingsClient,
		Config:           cfg,
	}

	initializeCatalogStore(ctx, appState)
	initializeDocStore(appState)
	initializeTaskRouter(ctx, appState)
	setupSignalHandler(appState)
	setupPurgeProcessor(ctx, appState)

	return appState
}

// handleCLIOptions handles CLI options that don't require the server to run
func handleCLIOptions() {
	if showVersion {
		fmt.Println(config.VersionString)
		os.Exit(0)
	}
}

// initializeCatalogStore initializes the catalog store based on the config file / ENV
func initializeCatalogStore(ctx context.Context, appState *models.AppState) {
	if appState.Config.Store.Type == "" {
		log.Fatal(ErrStoreTypeNotSet)
	}

	switch appState.Config.Store.Type {
	case StoreTypePostgres:
		if appState.Config.Store.Postgres.DSN == "" {
			log.Fatal(ErrPostgresDSNNotSet)
		}
		db, err := postgres.NewPostgresConn(appState)
		if err != nil {
			log.Fatal(err)
		}
		if appState.Config.Log.Level == "debug" {
			pgDebugLogging(db)
		}
		catalogStore, err := postgres.NewPostgresCatalogStore(appState, db)
		if err != nil {
			log.Fatal(err)
		}
		appState.CatalogStore = catalogStore

		err = postgres.CreateSchema(ctx, appState, db)
		if err != nil {
			log.Fatal(err)
		}
	default:
		log.Fatal(
			fmt.Sprintf("store.type (%s) is not supported", appState.Config.Store.Type),
		)
	}

	log.Info("Using catalog store: ", appState.Config.Store.Type)
}

// initializeDocStore initializes the document store based on the config file / ENV
func initializeDocStore(appState *models.AppState) {
	if appState.Config.DocStore.Type == "" {
		log.Fatal(ErrDocStoreTypeNotSet)
	}

	switch appState.Config.DocStore.Type {
	case DocStoreTypeMongo:
		if appState.Config.DocStore.Mongo.URI == "" {
			log.Fatal(ErrMongoURINotSet)
		}
		client, err := mongo.NewMongoConn(appState)
		if err != nil {
			log.Fatal(err)
		}
		docStore, err := mongo.NewMongoDocStore(appState, client)
		if err != nil {
			log.Fatal(err)
		}
		appState.DocStore = docStore
	default:
		log.Fatal(
			fmt.Sprintf("docstore.type (%s) is not supported", appState.Config.DocStore.Type),
		)
	}

	log.Info("Using doc store: ", appState.Config.DocStore.Type)
}

// initializeTaskRouter starts the embedder task router over the queue
// connection. The queue shares the catalog store's database.
func initializeTaskRouter(ctx context.Context, appState *models.AppState) {
	db, err := postgres.NewPostgresConnForQueue(appState)
	if err != nil {
		log.Fatalf("Error connecting to task queue: %s", err)
	}
	tasks.RunTaskRouter(ctx, appState, db)
}

func pgDebugLogging(db *bun.DB) {
	db.AddQueryHook(logrusbun.NewQueryHook(logrusbun.QueryHookOptions{
		LogSlow:         time.Second,
		Logger:          log,
		QueryLevel:      logrus.DebugLevel,
		ErrorLevel:      logrus.ErrorLevel,
		SlowLevel:       logrus.WarnLevel,
		MessageTemplate: "{{.Operation}}[{{.Duration}}]: {{.Query}}",
		ErrorTemplate:   "{{.Operation}}[{{.Duration}}]: {{.Query}}: {{.Error}}",
	}))
}

// setupSignalHandler sets up a signal handler to close store connections on termination
func setupSignalHandler(appState *models.AppState) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signalCh
		if err := appState.TaskRouter.Close(); err != nil {
			log.Errorf("Error closing task router: %v", err)
		}
		if err := appState.CatalogStore.Close(); err != nil {
			log.Errorf("Error closing CatalogStore connection: %v", err)
		}
		if err := appState.DocStore.Close(context.Background()); err != nil {
			log.Errorf("Error closing DocStore connection: %v", err)
		}
		os.Exit(0)
	}()
}

// setupPurgeProcessor sets up a go routine to purge deleted records from both
// stores at a regular interval. It's cancellable via the passed context.
// If Config.Data.PurgeEvery is 0, this function does nothing.
func setupPurgeProcessor(ctx context.Context, appState *models.AppState) {
	interval := time.Duration(appState.Config.Data.PurgeEvery) * time.Minute
	if interval == 0 {
		log.Debug("purge delete processor disabled")
		return
	}

	sessionMaxAge := time.Duration(appState.Config.Data.SessionMaxAgeDays) * 24 * time.Hour

	log.Infof("Starting purge delete processor. Purging every %v", interval)
	go func() {
		for {
			select {
			case <-ctx.Done():
				log.Info("Stopping purge delete processor")
				return
			default:
				err := appState.CatalogStore.PurgeDeleted(ctx)
				if err != nil {
					log.Errorf("error purging deleted catalog records: %v", err)
				}
				err = appState.DocStore.PurgeDeleted(ctx, sessionMaxAge)
				if err != nil {
					log.Errorf("error purging deleted sessions: %v", err)
				}
			}
			time.Sleep(interval)
		}
	}()
}
