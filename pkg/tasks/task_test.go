package tasks

import (
	"context"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"

	"github.com/dcnsakthi/intellica/internal"
	"github.com/dcnsakthi/intellica/pkg/models"
	"github.com/dcnsakthi/intellica/pkg/store/postgres"
	"github.com/dcnsakthi/intellica/pkg/testutils"
)

var testDB *bun.DB
var testCtx context.Context
var appState *models.AppState

func TestMain(m *testing.M) {
	setup()
	exitCode := m.Run()
	tearDown()

	os.Exit(exitCode)
}

func setup() {
	// Initialize the test context
	testCtx = context.Background()

	logger := internal.GetLogger()
	internal.SetLogLevel(logrus.DebugLevel)

	appState = &models.AppState{}
	cfg := testutils.NewTestConfig()
	cfg.Store.Postgres.DSN = testutils.GetDSN()
	cfg.Tasks.ProductEmbedder.Enabled = true
	cfg.Tasks.ReviewEmbedder.Enabled = true
	appState.Config = cfg

	// Initialize the database connection
	var err error
	testDB, err = postgres.NewPostgresConn(appState)
	if err != nil {
		panic(err)
	}
	testutils.SetUpDBLogging(testDB, logger)

	catalogStore, err := postgres.NewPostgresCatalogStore(appState, testDB)
	if err != nil {
		panic(err)
	}
	appState.CatalogStore = catalogStore
}

func tearDown() {
	// Close the database connection
	if err := testDB.Close(); err != nil {
		panic(err)
	}
	internal.SetLogLevel(logrus.InfoLevel)
}
