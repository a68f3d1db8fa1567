package main

import (
	"context"
	"flag"
	"os"
	"path"

	"licitaciones/internal/cli"
	"licitaciones/internal/config"

	"github.com/google/subcommands"
)

func main() {
	// .env необязателен: без него используются переменные окружения
	_ = config.LoadDotEnv()

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	cli.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
