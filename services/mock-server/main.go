package main

import (
	"fmt"
	"net/http"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/sumails/sumails/internal/logger"
	"github.com/sumails/sumails/services/mock-server/internal/mock"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	address := os.Getenv("MOCK_MAILBOX")
	if address == "" {
		address = "demo.user@gmail.com"
	}
	seed, err := strconv.Atoi(os.Getenv("MOCK_SEED_MESSAGES"))
	if err != nil {
		seed = 25
	}

	log := logger.NewDevelopment()
	defer log.Sync() //nolint:errcheck

	r := mock.NewRouter(mock.NewMailbox(address, seed), log)

	addr := fmt.Sprintf(":%s", port)
	log.Info("Starting Gmail mock API server", zap.String("addr", addr), zap.String("mailbox", address))
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatal("Server stopped", zap.Error(err))
	}
}
