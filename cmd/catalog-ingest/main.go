// catalog-ingest bulk-loads products into the catalog from JSONL files, one
// product object per line, optionally gzip-compressed. Duplicate product ids
// across files are dropped with a bloom filter.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/netefood/pos/internal/domain/product"
	"github.com/netefood/pos/internal/repository"
)

const (
	bloomCapacity = 1_000_000
	bloomFPR      = 0.001
	progressEvery = 10_000
)

// productLine is the JSONL shape of one catalog entry.
type productLine struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Price      string `json:"price"`
	Category   string `json:"category"`
	Stock      int    `json:"stock"`
	MinStock   int    `json:"minStock"`
	FiscalCode string `json:"fiscalCode"`
}

func main() {
	var databaseURL string
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	files := flag.Args()
	if len(files) == 0 {
		slog.Error("no input files given")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, files); err != nil {
		slog.Error("catalog ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog ingest completed successfully")
}

func run(ctx context.Context, databaseURL string, files []string) error {
	pool, err := repository.Connect(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := repository.Migrate(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}
	repo := repository.NewProductRepository(pool)

	// seen drops duplicate ids across all files. The filter is shared, so
	// access is serialized; a rare false positive only skips one product.
	var (
		mu   sync.Mutex
		seen = bloom.NewWithEstimates(bloomCapacity, bloomFPR)
	)

	lines := make(chan product.Product, 256)

	g, ctx := errgroup.WithContext(ctx)
	for _, path := range files {
		g.Go(ingestFile(ctx, path, lines, seen, &mu))
	}
	done := make(chan error, 1)
	go func() {
		done <- writeProducts(ctx, repo, lines)
	}()

	err = g.Wait()
	close(lines)
	if werr := <-done; werr != nil && err == nil {
		err = werr
	}
	return err
}

func ingestFile(
	ctx context.Context,
	path string,
	out chan<- product.Product,
	seen *bloom.BloomFilter,
	mu *sync.Mutex,
) func() error {
	return func() error {
		f, err := os.Open(path)
		if err != nil {
			return errors.Wrapf(err, "open %s", path)
		}
		defer func() { _ = f.Close() }()

		var r io.Reader = f
		if strings.HasSuffix(path, ".gz") {
			gz, err := pgzip.NewReader(f)
			if err != nil {
				return errors.Wrapf(err, "create gzip reader for %s", path)
			}
			defer func() { _ = gz.Close() }()
			r = gz
		}

		var count uint64
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var line productLine
			if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
				slog.Warn("skipping malformed line",
					slog.String("file", path),
					slog.String("error", err.Error()),
				)
				continue
			}

			key := strconv.FormatInt(line.ID, 10)
			mu.Lock()
			dup := seen.TestAndAddString(key)
			mu.Unlock()
			if dup {
				continue
			}

			p, err := line.toDomain()
			if err != nil {
				slog.Warn("skipping invalid product",
					slog.String("file", path),
					slog.Int64("id", line.ID),
					slog.String("error", err.Error()),
				)
				continue
			}

			select {
			case out <- p:
			case <-ctx.Done():
				return ctx.Err()
			}

			count++
			if count%progressEvery == 0 {
				slog.Info("ingest progress", slog.String("file", path), slog.Uint64("products", count))
			}
		}
		if err := scanner.Err(); err != nil {
			return errors.Wrapf(err, "scan %s", path)
		}

		slog.Info("file complete", slog.String("file", path), slog.Uint64("products", count))
		return nil
	}
}

func writeProducts(ctx context.Context, repo *repository.ProductRepository, in <-chan product.Product) error {
	var written int
	for p := range in {
		if err := repo.Upsert(ctx, &p); err != nil {
			return errors.Wrapf(err, "upsert product %d", p.ID)
		}
		written++
		if written%progressEvery == 0 {
			slog.Info("write progress", slog.Int("written", written))
		}
	}
	slog.Info("write complete", slog.Int("written", written))
	return nil
}

func (l productLine) toDomain() (product.Product, error) {
	price, err := decimal.NewFromString(strings.ReplaceAll(l.Price, ",", "."))
	if err != nil {
		return product.Product{}, errors.Wrap(err, "parse price")
	}
	if l.Name == "" {
		return product.Product{}, errors.New("name required")
	}
	return product.Product{
		ID:         l.ID,
		Name:       l.Name,
		Price:      price,
		Category:   l.Category,
		Stock:      l.Stock,
		MinStock:   l.MinStock,
		FiscalCode: l.FiscalCode,
	}, nil
}
