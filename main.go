package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"fighterarena/internal/chain"
	"fighterarena/internal/config"
	"fighterarena/internal/server"
	"fighterarena/internal/store"
	"fighterarena/internal/submit"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(cfg.Store)
	if err != nil {
		log.Fatal("Store failed to open: ", err)
	}
	defer st.Close()

	var (
		relay  submit.Relay
		reader server.ChainReader
	)
	if cfg.RelayEnabled() {
		client, err := chain.Dial(ctx, chain.Config{
			RPCURL:          cfg.Chain.RPCURL,
			ContractAddress: cfg.Chain.ContractAddress,
			PrivateKey:      cfg.Chain.PrivateKey,
			ChainID:         cfg.Chain.ChainID,
		})
		if err != nil {
			log.Printf("Chain relay disabled: %v", err)
		} else {
			defer client.Close()
			relay, reader = client, client
		}
	} else {
		log.Println("GAME_WALLET_PRIVATE_KEY not set, scores are saved locally only")
	}

	submitter := submit.NewService(st, relay, cfg.SubmitOptions())
	// Stopped explicitly after the server so ending sessions can still submit
	submitter.Start(context.Background())
	defer submitter.Stop()

	srv := server.NewServer(server.Options{
		Rules:     cfg.GameRules(),
		StaticDir: cfg.Server.StaticDir,
		Store:     st,
		Submitter: submitter,
		Chain:     reader,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(cfg.Server.Addr)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	log.Println("Starting Fighter Arena server...")
	if err := g.Wait(); err != nil {
		log.Printf("Server stopped with error: %v", err)
	}
}

func openStore(cfg config.StoreConfig) (store.Store, error) {
	if cfg.Driver == config.StoreMemory {
		log.Println("Using in-memory store, scores are lost on restart")
		return store.NewMemory(), nil
	}
	log.Printf("Using bolt store at %s", cfg.Path)
	return store.OpenBolt(cfg.Path)
}
