package main

import (
	"github.com/graphaura/backend/internal/server"
	"github.com/graphaura/backend/internal/util"
	"github.com/graphaura/backend/pkg/logger"
	"github.com/graphaura/backend/pkg/logger/console"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
