package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dcnsakthi/intellica/config"
	"github.com/dcnsakthi/intellica/internal"
	"github.com/dcnsakthi/intellica/pkg/models"
	"github.com/dcnsakthi/intellica/pkg/store/mongo"
	"github.com/dcnsakthi/intellica/pkg/store/postgres"
)

var (
	log *logrus.Logger

	cfgFile     string
	showVersion bool
	fixturePath string
)

var cmd = &cobra.Command{
	Use:   "intellica",
	Short: "intellica serves similarity retrieval over a retail catalog, customer 360 and session analytics",
	Run:   func(cmd *cobra.Command, args []string) { run() },
}

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Test utilities",
}

var createFixturesCmd = &cobra.Command{
	Use:   "create-fixtures",
	Short: "Create fixtures for testing",
	Run: func(cmd *cobra.Command, args []string) {
		fixtureCount, _ := cmd.Flags().GetInt("count")
		outputDir, _ := cmd.Flags().GetString("outputDir")
		postgres.GenerateFixtureData(fixtureCount, outputDir)
		fmt.Println("Fixtures created successfully.")
	},
}

var loadFixturesCmd = &cobra.Command{
	Use:   "load-fixtures",
	Short: "Load fixtures for testing",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			log.Fatalf("Error configuring intellica: %s", err)
		}
		appState := &models.AppState{
			Config: cfg,
		}
		db, err := postgres.NewPostgresConn(appState)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v\n", err)
		}
		err = postgres.LoadFixtures(context.Background(), appState, db, fixturePath)
		if err != nil {
			log.Fatalf("Failed to load fixtures: %v\n", err)
		}
		fmt.Println("Fixtures loaded successfully.")
	},
}

var seedDocStoreCmd = &cobra.Command{
	Use:   "seed-docstore",
	Short: "Seed the document store with sessions, events and reviews for the loaded catalog",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg, err := config.LoadConfig(cfgFile)
		if err != nil {
			log.Fatalf("Error configuring intellica: %s", err)
		}
		appState := &models.AppState{
			Config: cfg,
		}

		db, err := postgres.NewPostgresConn(appState)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v\n", err)
		}
		catalogStore, err := postgres.NewPostgresCatalogStore(appState, db)
		if err != nil {
			log.Fatalf("Failed to create catalog store: %v\n", err)
		}
		appState.CatalogStore = catalogStore

		mongoClient, err := mongo.NewMongoConn(appState)
		if err != nil {
			log.Fatalf("Failed to connect to mongo: %v\n", err)
		}
		docStore, err := mongo.NewMongoDocStore(appState, mongoClient)
		if err != nil {
			log.Fatalf("Failed to create doc store: %v\n", err)
		}

		customers, err := catalogStore.ListCustomers(ctx, 0, 0)
		if err != nil {
			log.Fatalf("Failed to list customers: %v\n", err)
		}
		products, err := catalogStore.ListProducts(ctx, 0, 0)
		if err != nil {
			log.Fatalf("Failed to list products: %v\n", err)
		}
		customerIDs := make([]string, len(customers))
		for i, customer := range customers {
			customerIDs[i] = customer.CustomerID
		}
		productIDs := make([]string, len(products))
		for i, product := range products {
			productIDs[i] = product.ProductID
		}

		err = mongo.GenerateTestData(ctx, appState, docStore, customerIDs, productIDs)
		if err != nil {
			log.Fatalf("Failed to seed doc store: %v\n", err)
		}
		fmt.Println("Doc store seeded successfully.")
	},
}

var dumpJsonSchemaCmd = &cobra.Command{
	Use:     "json-schema",
	Short:   "Generates JSON Schema for intellica's configuration file",
	Example: "intellica json-schema > intellica_config_schema.json",
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := config.JSONSchema()
		if err != nil {
			return err
		}
		fmt.Println(string(schema))
		return nil
	},
}

func init() {
	testCmd.AddCommand(createFixturesCmd)
	testCmd.AddCommand(loadFixturesCmd)
	testCmd.AddCommand(seedDocStoreCmd)
	cmd.AddCommand(testCmd)
	cmd.AddCommand(dumpJsonSchemaCmd)

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default config.yaml)")
	cmd.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "print version number")

	createFixturesCmd.Flags().Int("count", 100, "Number of fixtures to generate per model")
	createFixturesCmd.Flags().String("outputDir", "./test_data", "Path to output fixtures")
	loadFixturesCmd.Flags().
		StringVarP(&fixturePath, "fixturePath", "f", "./test_data", "Path containing fixtures to load")
}

// Execute executes the root cobra command.
func Execute() {
	log = internal.GetLogger()
	log.SetLevel(logrus.InfoLevel)

	err := cmd.Execute()

	if err != nil {
		os.Exit(1)
	}
}
