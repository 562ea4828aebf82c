package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/gophaccounts/internal/client/cli"
	"github.com/dmitrijs2005/gophaccounts/internal/client/client"
	"github.com/dmitrijs2005/gophaccounts/internal/client/config"
	"github.com/dmitrijs2005/gophaccounts/internal/client/session"
	"github.com/dmitrijs2005/gophaccounts/internal/logging"
)

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()

	store, db, err := session.Open(ctx, cfg.SessionDSN)
	if err != nil {
		log.Printf("error opening session store: %v", err)
		return
	}
	defer db.Close()

	logger := logging.Setup("text", "warn", os.Stderr)
	api := client.NewHTTPClient(cfg.ServerURL, cfg.RequestTimeout)

	cli.NewApp(api, store, logger, os.Stdin, os.Stdout).Run(ctx)

}
