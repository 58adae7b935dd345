package main

import (
	"log/slog"
	"os"

	"github.com/okalli/checkout-service/internal/app"
)

func main() {
	err := app.RunSweep()
	if err != nil {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		logger.Error(err.Error())
		os.Exit(1)
	}
}
