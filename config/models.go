package config

// Config holds the configuration of the application
// Use cmd.NewConfig to create a new instance
type Config struct {
	Embeddings EmbeddingsConfig `mapstructure:"embeddings"`
	Search     SearchConfig     `mapstructure:"search"`
	Tasks      TasksConfig      `mapstructure:"tasks"`
	Store      StoreConfig      `mapstructure:"store"`
	DocStore   DocStoreConfig   `mapstructure:"docstore"`
	Server     ServerConfig     `mapstructure:"server"`
	Data       DataConfig       `mapstructure:"data"`
	Log        LogConfig        `mapstructure:"log"`
}

// EmbeddingsConfig holds the configuration for the embedding provider client.
// OpenAIAPIKey is loaded from ENV not config file.
type EmbeddingsConfig struct {
	Service             string           `mapstructure:"service"`
	Model               string           `mapstructure:"model"`
	Dimensions          int              `mapstructure:"dimensions"`
	OpenAIAPIKey        string           `mapstructure:"openai_api_key"`
	OpenAIEndpoint      string           `mapstructure:"openai_endpoint"`
	OpenAIOrgID         string           `mapstructure:"openai_org_id"`
	AzureOpenAIEndpoint string           `mapstructure:"azure_openai_endpoint"`
	AzureOpenAIModel    AzureOpenAIModel `mapstructure:"azure_openai"`
}

type AzureOpenAIModel struct {
	EmbeddingDeployment string `mapstructure:"embedding_deployment"`
}

// SearchConfig holds the defaults for the similarity retrieval engine.
// MinScore is a similarity lower-bound in [0,1]; higher is better.
type SearchConfig struct {
	DefaultLimit int     `mapstructure:"default_limit"`
	MinScore     float64 `mapstructure:"min_score"`
	MMRLambda    float32 `mapstructure:"mmr_lambda"`
}

// TasksConfig enables/disables the async embedding tasks
type TasksConfig struct {
	ProductEmbedder EmbedderTaskConfig `mapstructure:"product_embedder"`
	ReviewEmbedder  EmbedderTaskConfig `mapstructure:"review_embedder"`
}

type EmbedderTaskConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type StoreConfig struct {
	Type     string         `mapstructure:"type"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// DocStoreConfig configures the document store holding sessions and reviews
type DocStoreConfig struct {
	Type  string      `mapstructure:"type"`
	Mongo MongoConfig `mapstructure:"mongo"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type ServerConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	MaxRequestSize int64  `mapstructure:"max_request_size"`
}

// DataConfig holds data retention configuration. PurgeEvery is the interval
// in minutes between session purge runs; 0 disables purging.
type DataConfig struct {
	PurgeEvery        int `mapstructure:"purge_every"`
	SessionMaxAgeDays int `mapstructure:"session_max_age_days"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}
