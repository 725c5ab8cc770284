// Command order-ingest bulk-imports gzipped JSONL order exports. Export
// files from adjacent time windows overlap, so the same order can appear in
// several files; a per-file bloom filter pre-screen keeps the exact
// duplicate set small enough to hold in memory.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/taxline-service/internal/storage/postgres"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 1_000_000
)

// orderRecord is one line of an export file.
type orderRecord struct {
	ID        string           `json:"id"`
	Number    string           `json:"number"`
	Currency  string           `json:"currency"`
	Items     []itemRecord     `json:"items"`
	Shipments []shipmentRecord `json:"shipments"`
}

type itemRecord struct {
	ID            string          `json:"id"`
	SKU           string          `json:"sku"`
	Description   string          `json:"description"`
	Quantity      int             `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	Total         decimal.Decimal `json:"total"`
	TaxCategoryID string          `json:"taxCategoryId"`
}

type shipmentRecord struct {
	ID    string       `json:"id"`
	Rates []rateRecord `json:"rates"`
}

type rateRecord struct {
	ID            string          `json:"id"`
	Label         string          `json:"label"`
	Cost          decimal.Decimal `json:"cost"`
	Selected      bool            `json:"selected"`
	TaxCategoryID string          `json:"taxCategoryId"`
}

func main() {
	var (
		dataDir     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing orders-*.jsonl.gz export files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
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

	if err := run(ctx, dataDir, databaseURL); err != nil {
		slog.Error("order ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("order ingest completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "orders-*.jsonl.gz"))
	if err != nil {
		return errors.Wrap(err, "glob export files")
	}
	if len(files) == 0 {
		return errors.Errorf("no orders-*.jsonl.gz files in %s", dataDir)
	}

	// Pass 1: build a bloom filter of order IDs per file, concurrently.
	slog.Info("pass 1: building bloom filters", slog.Int("files", len(files)))

	filters, err := buildBloomFilters(ctx, files)
	if err != nil {
		return errors.Wrap(err, "build bloom filters")
	}

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "create pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Pass 2: import, skipping orders already imported from an earlier
	// file. The bloom filters of earlier files pre-screen candidates; an
	// exact set of only those candidates resolves false positives.
	slog.Info("pass 2: importing orders")

	seen := make(map[string]struct{})
	total := 0
	for i, file := range files {
		n, err := importFile(ctx, pool, file, filters[:i], seen)
		if err != nil {
			return errors.Wrapf(err, "import %s", file)
		}
		total += n
		slog.Info("file imported", slog.String("file", filepath.Base(file)), slog.Int("orders", n))
	}

	slog.Info("orders imported", slog.Int("count", total))
	return nil
}

// buildBloomFilters scans every export file once and returns one filter of
// order IDs per file, in input order.
func buildBloomFilters(ctx context.Context, files []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(files))

	g, gctx := errgroup.WithContext(ctx)
	for i, file := range files {
		g.Go(func() error {
			filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
			count := 0
			err := scanFile(gctx, file, func(rec orderRecord) error {
				filter.AddString(rec.ID)
				if count++; count%progressEvery == 0 {
					slog.Info("scanning", slog.String("file", filepath.Base(file)), slog.Int("records", count))
				}
				return nil
			})
			if err != nil {
				return err
			}
			filters[i] = filter
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return filters, nil
}

// importFile inserts every order of one file that has not been imported
// from an earlier file. prior holds the bloom filters of all earlier files.
func importFile(ctx context.Context, pool *pgxpool.Pool, file string, prior []*bloom.BloomFilter, seen map[string]struct{}) (int, error) {
	imported := 0
	err := scanFile(ctx, file, func(rec orderRecord) error {
		if maybeDuplicate(rec.ID, prior) {
			if _, ok := seen[rec.ID]; ok {
				return nil
			}
			// Bloom false positive: the ID only looked seen.
		}
		if err := insertOrder(ctx, pool, rec); err != nil {
			return err
		}
		seen[rec.ID] = struct{}{}
		imported++
		return nil
	})
	return imported, err
}

func maybeDuplicate(id string, prior []*bloom.BloomFilter) bool {
	for _, f := range prior {
		if f.TestString(id) {
			return true
		}
	}
	return false
}

// scanFile streams one gzipped JSONL file, calling fn per record. It checks
// ctx between lines so an interrupt aborts promptly.
func scanFile(ctx context.Context, file string, fn func(orderRecord) error) error {
	f, err := os.Open(file)
	if err != nil {
		return errors.Wrap(err, "open")
	}
	defer f.Close()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrap(err, "gzip reader")
	}
	defer gz.Close()

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 0, 1<<20), 1<<20)

	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(scanner.Bytes()) == 0 {
			continue
		}

		var rec orderRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return errors.Wrapf(err, "line %d", line)
		}
		if rec.ID == "" {
			return errors.Errorf("line %d: record without id", line)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return errors.Wrap(scanner.Err(), "scan")
}

func insertOrder(ctx context.Context, pool *pgxpool.Pool, rec orderRecord) error {
	_, err := pool.Exec(ctx,
		`INSERT INTO orders (id, number, currency) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO NOTHING`,
		rec.ID, rec.Number, rec.Currency,
	)
	if err != nil {
		return errors.Wrap(err, "insert order")
	}

	for i, item := range rec.Items {
		_, err := pool.Exec(ctx,
			`INSERT INTO line_items (id, order_id, position, sku, description, quantity, unit_price, total, tax_category_id)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''))
			 ON CONFLICT (id) DO NOTHING`,
			item.ID, rec.ID, i, item.SKU, item.Description,
			item.Quantity, item.UnitPrice, item.Total, item.TaxCategoryID,
		)
		if err != nil {
			return errors.Wrapf(err, "insert line item %s", item.ID)
		}
	}

	for _, sh := range rec.Shipments {
		_, err := pool.Exec(ctx,
			`INSERT INTO shipments (id, order_id) VALUES ($1, $2)
			 ON CONFLICT (id) DO NOTHING`,
			sh.ID, rec.ID,
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

	return nil
}
