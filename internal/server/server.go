package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/graphaura/backend/internal/queue"
	mid "github.com/graphaura/backend/internal/server/middleware"
	serverutil "github.com/graphaura/backend/internal/server/util"
	"github.com/graphaura/backend/internal/storage"
	"github.com/graphaura/backend/internal/util"
	"github.com/graphaura/backend/pkg/graphdb"
	"github.com/graphaura/backend/pkg/logger"
	"github.com/graphaura/backend/pkg/rag"
	"github.com/graphaura/backend/pkg/vector"

	"github.com/go-playground/validator"
	"github.com/golang-migrate/migrate/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	pgxvec "github.com/pgvector/pgvector-go/pgx"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

func runMigrations() {
	m, err := migrate.New("file://migrations", util.GetEnv("DATABASE_URL"))
	if err != nil {
		logger.Fatal("Failed to load migrations", "err", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Fatal("Failed to run migrations", "err", err)
	}
}

func Init() {
	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runMigrations()

	pgConfig, err := pgxpool.ParseConfig(util.GetEnv("DATABASE_URL"))
	if err != nil {
		logger.Fatal("Invalid database config", "err", err)
	}
	pgConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}
	conn, err := pgxpool.NewWithConfig(ctx, pgConfig)
	if err != nil {
		logger.Fatal("Failed to connect to database", "err", err)
	}
	defer conn.Close()

	graphSvc, err := graphdb.New(ctx, graphdb.Config{
		URI:      util.GetEnvString("NEO4J_URI", "bolt://localhost:7687"),
		Username: util.GetEnvString("NEO4J_USER", "neo4j"),
		Password: util.GetEnv("NEO4J_PASSWORD"),
		Database: util.GetEnv("NEO4J_DATABASE"),
	})
	if err != nil {
		logger.Fatal("Unable to connect to Neo4j", "err", err)
	}
	defer graphSvc.Close(ctx)

	if err := graphSvc.EnsureSchema(ctx); err != nil {
		logger.Fatal("Failed to ensure graph schema", "err", err)
	}

	ragClient := rag.NewClient(rag.Config{
		BaseURL: util.GetEnvString("R2R_BASE_URL", "http://localhost:7272"),
		APIKey:  util.GetEnv("R2R_API_KEY"),
	})

	que := queue.Init()
	defer que.Close()
	ch, err := que.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}

	if err := queue.SetupQueues(ch, queue.Queues); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	s3 := storage.NewS3Client(ctx)

	vectorStore := vector.NewStore(conn, vector.NewStoreParams{
		Dimension: util.GetEnvInt("VECTOR_DIMENSION", 512),
		Threshold: util.GetEnvNumeric("SIMILARITY_THRESHOLD", 0),
	})

	sessionMaxIdle := time.Duration(util.GetEnvInt("SESSION_MAX_IDLE_MINUTES", 60)) * time.Minute
	sessions := serverutil.NewSessionRegistry(sessionMaxIdle)

	app := &mid.App{
		DBConn:   conn,
		Queue:    ch,
		S3:       s3,
		Graph:    graphSvc,
		Vector:   vectorStore,
		RAG:      ragClient,
		Sessions: sessions,
	}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("4G"))

	RegisterRoutes(e)

	go func() {
		port := util.GetEnv("PORT")
		if port == "" {
			port = "8080"
		}
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
}
