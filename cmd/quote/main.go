// README: Offline quote calculator; prices one request with the configured tables and prints the breakdown.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"benne/internal/config"
	"benne/internal/modules/pricing"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to config.yaml")
		service    = flag.String("service", "benne-10m3", "container service id")
		waste      = flag.String("waste", "", "waste type key")
		address    = flag.String("address", "", "delivery address")
		days       = flag.Int("days", 3, "rental duration in days")
		distance   = flag.Int("distance", 0, "distance override in km (0 resolves from the address)")
		docFee     = flag.Bool("bsd", false, "add the waste tracking document fee")
	)
	flag.Parse()

	if *days < 1 {
		log.Fatal("days must be at least 1")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	tables, err := cfg.Pricing.Tables()
	if err != nil {
		log.Fatal(err)
	}
	resolver, err := pricing.NewTableResolver(cfg.Pricing.DistanceTable())
	if err != nil {
		log.Fatal(err)
	}
	svc := pricing.NewService(cfg.Pricing.Rates(), tables, resolver)

	req := pricing.QuoteRequest{
		ServiceID:    *service,
		WasteType:    *waste,
		Address:      *address,
		DurationDays: *days,
		DocumentFee:  *docFee,
	}
	if *distance > 0 {
		req.DistanceKm = distance
	}

	res, err := svc.ComputeQuote(req)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		log.Fatal(err)
	}
}
