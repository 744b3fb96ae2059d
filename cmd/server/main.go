package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/dinepos/api/internal/clock"
	"github.com/dinepos/api/internal/config"
	"github.com/dinepos/api/internal/pricing"
	"github.com/dinepos/api/internal/router"
	"github.com/dinepos/api/internal/sequence"
	"github.com/dinepos/api/internal/service"
	"github.com/dinepos/api/internal/store"
	"github.com/dinepos/api/internal/ws"
)

func main() {
	cfg := config.Load()

	taxRate, err := decimal.NewFromString(cfg.TaxRatePercent)
	if err != nil {
		log.Fatalf("invalid TAX_RATE_PERCENT %q: %v", cfg.TaxRatePercent, err)
	}

	st, err := store.NewPostgres(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect to database: %v", err)
	}
	defer st.Close()

	hub := ws.NewHub()
	go hub.Run()

	clk := clock.New()
	seq := sequence.New(st)
	pricer := pricing.New(taxRate)

	tables := service.NewTableService(st, hub, clk, cfg.DefaultHoldMinutes)
	orders := service.NewOrderService(st, pricer, seq, tables, hub, clk)
	tickets := service.NewTicketService(st, hub, clk)

	r := router.New(cfg, st, orders, tables, tickets, hub)

	log.Printf("Starting server on :%s", cfg.Port)
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), r); err != nil {
		log.Fatal(err)
	}
}
