// Command seed populates a development database with fixture users
// and markets.
package main

import (
	"context"
	"flag"
	"log"

	"lmsrexchange/internal/config"
	"lmsrexchange/internal/seed"
	"lmsrexchange/internal/store"
)

func main() {
	users := flag.Int("users", 10, "number of fixture users to create")
	markets := flag.Int("markets", 5, "number of fixture markets to create")
	flag.Parse()

	cfg := config.Load()
	s, err := store.Open(store.Config{Driver: cfg.StoreDriver, DSN: cfg.StoreDSN})
	if err != nil {
		log.Fatalf("seed: open store: %v", err)
	}

	if err := seed.Run(context.Background(), s, *users, *markets); err != nil {
		log.Fatalf("seed: %v", err)
	}
	log.Printf("seed: created %d users and %d markets", *users, *markets)
}
