// Command billtest pokes a billing service by hand: it connects a
// gateway, dumps the advertised capabilities, and queries the product
// IDs given on the command line.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/mkelly/billgate"
)

func main() {
	serviceURL := flag.String("url", "ws://localhost:8650/billing/ws/v1", "billing service WebSocket URL")
	clientID := flag.String("client", "billtest", "client ID sent in the handshake")
	keyID := flag.String("key", "", "API key ID (leave empty for unsigned handshake)")
	keyPath := flag.String("key-file", "", "path to RSA private key PEM")
	productType := flag.String("type", "inapp", "product type to query (inapp or subs)")
	timeout := flag.Duration("timeout", 30*time.Second, "overall timeout")
	flag.Parse()

	ids := flag.Args()
	if len(ids) == 0 {
		fmt.Fprintln(os.Stderr, "usage: billtest [flags] PRODUCT_ID...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	// Keep slog output out of the way of the printed results.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	gateway, err := billgate.GetOrCreate(billgate.Options{
		ServiceURL:     *serviceURL,
		ClientID:       *clientID,
		KeyID:          *keyID,
		PrivateKeyPath: *keyPath,
	})
	if err != nil {
		log.Fatalf("gateway setup failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	specs := make([]billgate.ProductSpec, 0, len(ids))
	for _, id := range ids {
		specs = append(specs, billgate.ProductSpec{
			ID:   id,
			Type: billgate.ProductType(*productType),
		})
	}

	fmt.Printf("=== Querying %d products from %s ===\n", len(specs), *serviceURL)
	products, err := gateway.QueryCatalog(ctx, specs)
	if err != nil {
		log.Fatalf("QueryCatalog failed: %v", err)
	}

	for i, p := range products {
		fmt.Printf("  %d. %s [%s] %s %s - %s\n", i+1, p.ID, p.Type, p.Price, p.Currency, p.Title)
	}
	if len(products) < len(specs) {
		fmt.Printf("(%d of %d requested products returned)\n", len(products), len(specs))
	}

	fmt.Println("\n=== Capabilities ===")
	caps := []billgate.Capability{
		billgate.CapabilitySubscriptions,
		billgate.CapabilitySubscriptionUpdate,
		billgate.CapabilityPriceChangeConfirm,
		billgate.CapabilityInAppItems,
	}
	for _, c := range caps {
		fmt.Printf("  %-30s %v\n", c, gateway.IsCapabilitySupported(c))
	}

	fmt.Printf("\nConnection state: %s\n", gateway.ConnectionState())
}
