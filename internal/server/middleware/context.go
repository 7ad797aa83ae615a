package middleware

import (
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rabbitmq/amqp091-go"

	"github.com/graphaura/backend/internal/server/util"
	"github.com/graphaura/backend/pkg/graphdb"
	"github.com/graphaura/backend/pkg/rag"
	"github.com/graphaura/backend/pkg/vector"
)

// App bundles the backing services handlers need.
type App struct {
	DBConn   *pgxpool.Pool
	Queue    *amqp091.Channel
	S3       *s3.Client
	Graph    *graphdb.Service
	Vector   *vector.Store
	RAG      *rag.Client
	Sessions *util.SessionRegistry
}

type AppContext struct {
	echo.Context
	App *App
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &AppContext{c, app}
			return next(cc)
		}
	}
}
