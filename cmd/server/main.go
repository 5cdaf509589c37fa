package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/montekkundan/newsapi/internal/article"
	"github.com/montekkundan/newsapi/internal/database"
	"github.com/montekkundan/newsapi/internal/metrics"
	api "github.com/montekkundan/newsapi/pkg/restapi"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconf "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

const shutdownTimeout = 5 * time.Second

func main() {
	// Listen to termination signals.
	ctx, cancel := context.WithCancel(context.Background())
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Initialize config.
	config, err := LoadConfig()
	if err != nil {
		zlog.Fatal().Err(err).Msg("config cannot be loaded")
	}

	// Initialize logger.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	if config.LogFormat == PrettyLogFormat {
		zlog.Logger = zlog.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	lvl, err := zerolog.ParseLevel(config.LogLevel)
	if err != nil {
		zlog.Fatal().Err(err).Msg("invalid log level")
	}

	zlog.Logger = zlog.Logger.Level(lvl)
	logger := zlog.Logger

	// Initialize the storage.
	repo, closeRepo := initializeRepository(ctx, config, logger)
	defer closeRepo()

	instrumented := article.NewInstrumented(repo, metrics.NewRepositoryExporter(string(config.Storage.Type)))

	// Initialize the REST server.
	router := api.NewRouter(api.RouterOpts{
		Logger:      logger,
		Repo:        instrumented,
		Health:      instrumented,
		Timeout:     config.API.ServerTimeout,
		Limits:      config.Limits.Article(),
		MaxBodySize: config.API.MaxBodySize,
		MaxPageSize: config.API.MaxPageSize,
	})

	srv := &http.Server{
		Addr:              config.API.ListeningAddress,
		Handler:           router,
		ReadTimeout:       20 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      config.API.ServerTimeout + 5*time.Second,
	}
	go func() {
		zlog.Info().Str("address", config.API.ListeningAddress).Msg("starting the server")

		err := srv.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("server listen failed")
		}
	}()

	// Export Prometheus metrics.
	metricSrv := &http.Server{
		Addr:              config.PrometheusExportAddress,
		Handler:           http.DefaultServeMux,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zlog.Info().Str("address", config.PrometheusExportAddress).Msg("starting the prometheus exporter")

		http.DefaultServeMux.Handle("/metrics", promhttp.Handler())
		err := metricSrv.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			zlog.Error().Err(err).Msg("prometheus exporter failed")
		}
	}()

	<-stop
	cancel()

	shutdownCtx, shutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdown()

	err = srv.Shutdown(shutdownCtx)
	if err != nil {
		zlog.Error().Err(err).Msg("server shutdown failed")
	}

	err = metricSrv.Shutdown(shutdownCtx)
	if err != nil {
		zlog.Error().Err(err).Msg("prometheus exporter shutdown failed")
	}

	zlog.Info().Msg("server has been stopped")
}

func initializeRepository(ctx context.Context, config *Config, logger zerolog.Logger) (article.Repository, func()) {
	switch config.Storage.Type {
	case StorageTypePostgres:
		pg := config.Storage.Postgres
		pool, err := database.Connect(ctx, database.Config{
			URL:            pg.URL,
			MaxConns:       pg.MaxConns,
			ConnectTimeout: pg.ConnectTimeout,
		})
		if err != nil {
			zlog.Fatal().Err(err).Msg("failed to connect to postgres")
		}

		err = database.EnsureSchema(ctx, pool)
		if err != nil {
			pool.Close()
			zlog.Fatal().Err(err).Msg("failed to create the schema")
		}

		collector := database.NewStatsCollector(ctx, logger, pool, pg.StatsFrequency, metrics.NewPoolStatusExporter("postgres"))
		go collector.Start()

		return article.NewPostgresRepository(pool), pool.Close

	case StorageTypeDynamoDB:
		dcfg := config.Storage.DynamoDB

		var awsOpts []func(*awsconf.LoadOptions) error
		if dcfg.AccessKeyID != "" {
			// Otherwise, the SDK picks credentials from the environment.
			awsOpts = append(awsOpts, awsconf.WithCredentialsProvider(config))
		}

		awsOpts = append(awsOpts, awsconf.WithRegion(dcfg.Region))

		awsConfig, err := awsconf.LoadDefaultConfig(ctx, awsOpts...)
		if err != nil {
			zlog.Fatal().Err(err).Msg("failed to load AWS config")
		}

		client := dynamodb.NewFromConfig(awsConfig, func(o *dynamodb.Options) {
			if dcfg.Endpoint != "" {
				o.BaseEndpoint = aws.String(dcfg.Endpoint)
			}
		})

		return article.NewDynamoRepository(client, dcfg.TableName), func() {}
	}

	zlog.Fatal().Str("type", string(config.Storage.Type)).Msg("invalid storage type")

	return nil, nil
}
