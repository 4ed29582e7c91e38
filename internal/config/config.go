package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Settings struct {
	ServerPort int

	MariaDBDSN      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	JWTSecret string

	RedisAddr     string
	RedisPassword string

	// "minio" (default) or "local" for the legacy filesystem backend.
	StorageBackend   string
	LocalStorageRoot string
	MinioEndpoint    string
	MinioAccessKey   string
	MinioSecretKey   string
	MinioUseSSL      bool
	MinioBucket      string

	ProcessingTickInterval      time.Duration
	ProcessingStep              int
	ProcessingAnalysisThreshold int
	ProcessingMaxRuntime        time.Duration
}

func Load() (*Settings, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found; proceeding with OS environment variables")
	}

	viper.AutomaticEnv()

	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: could not read .env file: %v", err)
	}

	viper.SetDefault("MARIADB_MAX_OPEN_CONN", 25)
	viper.SetDefault("MARIADB_MAX_IDLE_CONNS", 5)
	viper.SetDefault("MARIADB_CONN_MAX_LIFETIME", 300)
	viper.SetDefault("STORAGE_BACKEND", "minio")
	viper.SetDefault("LOCAL_STORAGE_ROOT", "./videos")
	viper.SetDefault("MINIO_BUCKET", "videos")
	viper.SetDefault("PROCESSING_TICK_INTERVAL_MS", 1000)
	viper.SetDefault("PROCESSING_STEP", 10)
	viper.SetDefault("PROCESSING_ANALYSIS_THRESHOLD", 70)
	viper.SetDefault("PROCESSING_MAX_RUNTIME", 600)

	if !viper.IsSet("MARIADB_DSN") {
		return nil, fmt.Errorf("MARIADB_DSN is required")
	}
	if !viper.IsSet("SERVER_PORT") {
		return nil, fmt.Errorf("SERVER_PORT is required")
	}

	backend := viper.GetString("STORAGE_BACKEND")
	switch backend {
	case "minio":
		if !viper.IsSet("MINIO_ENDPOINT") {
			return nil, fmt.Errorf("MINIO_ENDPOINT is required when STORAGE_BACKEND is minio")
		}
		if !viper.IsSet("MINIO_ACCESS_KEY") || !viper.IsSet("MINIO_SECRET_KEY") {
			return nil, fmt.Errorf("MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required when STORAGE_BACKEND is minio")
		}
	case "local":
		// nothing else required, the root dir is created on demand
	default:
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q (want minio or local)", backend)
	}

	return &Settings{
		ServerPort:      viper.GetInt("SERVER_PORT"),
		MariaDBDSN:      viper.GetString("MARIADB_DSN"),
		MaxOpenConns:    viper.GetInt("MARIADB_MAX_OPEN_CONN"),
		MaxIdleConns:    viper.GetInt("MARIADB_MAX_IDLE_CONNS"),
		ConnMaxLifetime: time.Duration(viper.GetInt("MARIADB_CONN_MAX_LIFETIME")) * time.Second,

		JWTSecret: viper.GetString("JWT_SECRET"),

		RedisAddr:     viper.GetString("REDIS_ADDR"),
		RedisPassword: viper.GetString("REDIS_PASSWORD"),

		StorageBackend:   backend,
		LocalStorageRoot: viper.GetString("LOCAL_STORAGE_ROOT"),
		MinioEndpoint:    viper.GetString("MINIO_ENDPOINT"),
		MinioAccessKey:   viper.GetString("MINIO_ACCESS_KEY"),
		MinioSecretKey:   viper.GetString("MINIO_SECRET_KEY"),
		MinioUseSSL:      viper.GetBool("MINIO_USE_SSL"),
		MinioBucket:      viper.GetString("MINIO_BUCKET"),

		ProcessingTickInterval:      time.Duration(viper.GetInt("PROCESSING_TICK_INTERVAL_MS")) * time.Millisecond,
		ProcessingStep:              viper.GetInt("PROCESSING_STEP"),
		ProcessingAnalysisThreshold: viper.GetInt("PROCESSING_ANALYSIS_THRESHOLD"),
		ProcessingMaxRuntime:        time.Duration(viper.GetInt("PROCESSING_MAX_RUNTIME")) * time.Second,
	}, nil
}
