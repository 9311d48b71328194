package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/AdekunleBamz/TimeFi-Protocol/client/internal/cli"
)

// Переменные для версии и даты сборки, устанавливаются через ldflags.
var (
	version = "dev"
	//nolint:gochecknoglobals // Устанавливается через ldflags при сборке
	buildDate = "unknown"
	//nolint:gochecknoglobals // Устанавливается через ldflags при сборке
	commitHash = "N/A"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCmd(cli.Options{
		Version: fmt.Sprintf("%s (сборка %s, коммит %s)", version, buildDate, commitHash),
	})
	code := cli.Execute(ctx, root)
	stop()
	os.Exit(code)
}
