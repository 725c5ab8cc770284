// Command seed-db loads a JSON fixture of tax categories, orders, and
// refunds into the database, and optionally registers an API key. It is
// used for local development and by the integration test harness.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/taxline-service/internal/storage/postgres"
)

type fixture struct {
	TaxCategories []taxCategoryJSON `json:"taxCategories"`
	Orders        []orderJSON       `json:"orders"`
}

type taxCategoryJSON struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	TaxCode string `json:"taxCode"`
}

type orderJSON struct {
	ID        string         `json:"id"`
	Number    string         `json:"number"`
	Currency  string         `json:"currency"`
	Items     []lineItemJSON `json:"items"`
	Shipments []shipmentJSON `json:"shipments"`
	Refunds   []refundJSON   `json:"refunds"`
}

type lineItemJSON struct {
	ID            string          `json:"id"`
	SKU           string          `json:"sku"`
	Description   string          `json:"description"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	Total         decimal.Decimal `json:"total"`
	TaxCategoryID string          `json:"taxCategoryId"`
}

type shipmentJSON struct {
	ID    string             `json:"id"`
	Rates []shippingRateJSON `json:"rates"`
}

type shippingRateJSON struct {
	ID            string          `json:"id"`
	Label         string          `json:"label"`
	Cost          decimal.Decimal `json:"cost"`
	Selected      bool            `json:"selected"`
	TaxCategoryID string          `json:"taxCategoryId"`
}

type refundJSON struct {
	ID        string          `json:"id"`
	PaymentID string          `json:"paymentId"`
	Amount    decimal.Decimal `json:"amount"`
	Reason    string          `json:"reason"`
}

func main() {
	var (
		databaseURL  string
		fixtureFile  string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&fixtureFile, "fixture", "data/fixture.json", "path to the seed fixture JSON")
	flag.StringVar(&apiKey, "api-key", "", "API key to register (optional)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper used to hash the API key")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, fixtureFile, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, fixtureFile, apiKey, apiKeyPepper string) error {
	raw, err := os.ReadFile(fixtureFile)
	if err != nil {
		return errors.Wrap(err, "read fixture")
	}

	var fx fixture
	if err := json.Unmarshal(raw, &fx); err != nil {
		return errors.Wrap(err, "parse fixture")
	}

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "create pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	for _, tc := range fx.TaxCategories {
		_, err := pool.Exec(ctx,
			`INSERT INTO tax_categories (id, name, tax_code) VALUES ($1, $2, $3)
			 ON CONFLICT (id) DO UPDATE SET name = $2, tax_code = $3`,
			tc.ID, tc.Name, tc.TaxCode,
		)
		if err != nil {
			return errors.Wrapf(err, "insert tax category %s", tc.ID)
		}
	}

	for _, o := range fx.Orders {
		if err := seedOrder(ctx, pool, o); err != nil {
			return errors.Wrapf(err, "seed order %s", o.ID)
		}
	}
	slog.Info("orders seeded", slog.Int("count", len(fx.Orders)))

	if apiKey != "" {
		mac := hmac.New(sha256.New, []byte(apiKeyPepper))
		mac.Write([]byte(apiKey))
		hash := hex.EncodeToString(mac.Sum(nil))

		_, err := pool.Exec(ctx,
			`INSERT INTO api_keys (id, key_hash, name, scopes) VALUES ($1, $2, $3, $4)
			 ON CONFLICT (key_hash) DO NOTHING`,
			uuid.New().String(), hash, "seed", []string{"tax-lines"},
		)
		if err != nil {
			return errors.Wrap(err, "insert api key")
		}
		slog.Info("api key registered")
	}

	return nil
}

func seedOrder(ctx context.Context, pool *pgxpool.Pool, o orderJSON) error {
	_, err := pool.Exec(ctx,
		`INSERT INTO orders (id, number, currency) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO NOTHING`,
		o.ID, o.Number, o.Currency,
	)
	if err != nil {
		return errors.Wrap(err, "insert order")
	}

	for i, item := range o.Items {
		_, err := pool.Exec(ctx,
			`INSERT INTO line_items (id, order_id, position, sku, description, quantity, unit_price, total, tax_category_id)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''))
			 ON CONFLICT (id) DO NOTHING`,
			item.ID, o.ID, i, item.SKU, item.Description,
			item.Quantity, item.UnitPrice, item.Total, item.TaxCategoryID,
		)
		if err != nil {
			return errors.Wrapf(err, "insert line item %s", item.ID)
		}
	}

	for _, sh := range o.Shipments {
		_, err := pool.Exec(ctx,
			`INSERT INTO shipments (id, order_id) VALUES ($1, $2)
			 ON CONFLICT (id) DO NOTHING`,
			sh.ID, o.ID,
		)
		if err != nil {
			return errors.Wrapf(err, "insert shipment %s", sh.ID)
		}
		for _, rate := range sh.Rates {
			_, err := pool.Exec(ctx,
				`INSERT INTO shipping_rates (id, shipment_id, label, cost, selected, tax_category_id)
				 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
				 ON CONFLICT (id) DO NOTHING`,
				rate.ID, sh.ID, rate.Label, rate.Cost, rate.Selected, rate.TaxCategoryID,
			)
			if err != nil {
				return errors.Wrapf(err, "insert shipping rate %s", rate.ID)
			}
		}
	}

	for _, ref := range o.Refunds {
		_, err := pool.Exec(ctx,
			`INSERT INTO refunds (id, order_id, payment_id, amount, reason)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO NOTHING`,
			ref.ID, o.ID, ref.PaymentID, ref.Amount, ref.Reason,
		)
		if err != nil {
			return errors.Wrapf(err, "insert refund %s", ref.ID)
		}
	}

	return nil
}
