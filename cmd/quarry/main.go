package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/quarrydata/quarry/internal/config"
	"github.com/quarrydata/quarry/internal/domain"
	"github.com/quarrydata/quarry/internal/infrastructure/connector"
	"github.com/quarrydata/quarry/internal/infrastructure/database"
	"github.com/quarrydata/quarry/internal/infrastructure/repository"
	"github.com/quarrydata/quarry/internal/infrastructure/storage"
	"github.com/quarrydata/quarry/internal/present/rest"
	"github.com/quarrydata/quarry/internal/present/rest/middleware"
	"github.com/quarrydata/quarry/internal/service"
	"github.com/quarrydata/quarry/internal/usecase"
)

func main() {
	ctx := context.Background()

	configPath := os.Getenv("QUARRY_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}

	conf, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	db, err := database.NewPostgres(conf.Server.PostgresDsn)
	if err != nil {
		slog.Error("failed to connect database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	err = database.MigratePostgres(db)
	if err != nil {
		slog.Error("failed to migrate database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rdb := database.NewRedis(conf.Server.RedisAddr, "", conf.Server.RedisDB)
	mc := database.NewMemcached(conf.Server.MemcachedAddr)
	schemaCache := database.NewSchemaSnapshotCache(mc)

	var store usecase.ObjectStore
	switch conf.Storage.Backend {
	case "minio":
		store, err = storage.NewMinio(ctx, conf.Storage)
		if err != nil {
			slog.Error("failed to init object storage", slog.String("error", err.Error()))
			os.Exit(1)
		}
	default:
		store, err = storage.NewLocal(conf.Storage.LocalPath)
		if err != nil {
			slog.Error("failed to init local storage", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	connectors := connector.NewRegistry()
	connectors.Register(domain.SourceTypePostgres, connector.NewPostgres)

	assist, err := service.NewAssistService(ctx, conf.Assist)
	if err != nil {
		slog.Error("failed to init assist service", slog.String("error", err.Error()))
		os.Exit(1)
	}
	authService := service.NewAuthService(conf.Auth.JwtSecret)
	signal := service.NewSignalService(rdb)

	sourceRepo := repository.NewDataSourceRepository(db)
	patternRepo := repository.NewPatternRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	connectionRepo := repository.NewApiConnectionRepository(db)
	pipelineRepo := repository.NewPipelineRepository(db)
	qualityRepo := repository.NewQualityRepository(db)
	syntheticRepo := repository.NewSyntheticRepository(db)
	queryLogRepo := repository.NewQueryLogRepository(db)

	sourceUsecase := usecase.NewDataSourceUsecase(sourceRepo, connectors, signal)
	patternUsecase := usecase.NewPatternUsecase(patternRepo, signal)
	catalogUsecase := usecase.NewCatalogUsecase(catalogRepo, assist, patternUsecase, signal)
	connectionUsecase := usecase.NewApiConnectionUsecase(connectionRepo, signal)
	pipelineUsecase := usecase.NewPipelineUsecase(pipelineRepo, signal)
	qualityUsecase := usecase.NewQualityUsecase(qualityRepo, sourceRepo, connectors, signal)
	syntheticUsecase := usecase.NewSyntheticUsecase(syntheticRepo, store, signal)
	relationalUsecase := usecase.NewRelationalUsecase(sourceRepo, connectors, schemaCache)
	queryUsecase := usecase.NewQueryContextUsecase(sourceRepo, catalogRepo, patternRepo, queryLogRepo)

	handler := rest.NewHandler(
		sourceUsecase,
		patternUsecase,
		catalogUsecase,
		connectionUsecase,
		pipelineUsecase,
		qualityUsecase,
		syntheticUsecase,
		relationalUsecase,
		queryUsecase,
		signal,
	)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	if conf.Server.EnableTrace {
		shutdown, err := setupTraceProvider(ctx, conf.Server.TraceEndpoint)
		if err != nil {
			slog.Error("failed to init tracer", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer shutdown()
		e.Use(otelecho.Middleware("quarry"))
	}

	authMiddleware := middleware.NewAuthMiddleware(authService)
	e.Use(authMiddleware.IdentifyRequester)

	handler.RegisterRoutes(e)

	e.Logger.Fatal(e.Start(conf.Server.Listen))
}

func setupTraceProvider(ctx context.Context, endpoint string) (func(), error) {
	exporter, err := otlptracehttp.New(
		ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", "quarry"),
		)),
	)
	otel.SetTracerProvider(tp)

	return func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			slog.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}, nil
}
