package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"licitaciones/db"
	"licitaciones/internal/config"
	"licitaciones/internal/importer"
	"licitaciones/internal/metrics"

	"github.com/MonkyMars/gecho"
	"github.com/google/subcommands"
)

type importCmd struct {
	productURL  string
	tenderURL   string
	orderURL    string
	pushgateway string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "imports sample products, tenders and orders" }
func (*importCmd) Usage() string {
	return `licitaciones import [-products URL] [-tenders URL] [-orders URL] [-pushgateway URL]

Downloads products, tenders and orders as JSON and stores them.
Records that fail validation are logged and skipped; the import
only fails when a source cannot be downloaded.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	cfg := config.GetConfig()
	f.StringVar(&c.productURL, "products", cfg.Import.ProductURL, "products source (SAMPLE_PRODUCT_URL)")
	f.StringVar(&c.tenderURL, "tenders", cfg.Import.TenderURL, "tenders source (SAMPLE_TENDER_URL)")
	f.StringVar(&c.orderURL, "orders", cfg.Import.OrderURL, "orders source (SAMPLE_ORDER_URL)")
	f.StringVar(&c.pushgateway, "pushgateway", cfg.Import.PushgatewayURL, "Pushgateway for import metrics (IMPORT_PUSHGATEWAY_URL)")
}

func (c *importCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg := config.GetConfig()
	logger := config.NewLogger(cfg, false)

	dbConn, err := openDB(cfg)
	if err != nil {
		logger.Error("Failed to open database", gecho.Field("error", err.Error()))
		return subcommands.ExitFailure
	}
	defer dbConn.Close()

	m := metrics.New()
	im := importer.New(importer.Config{
		ProductURL: c.productURL,
		TenderURL:  c.tenderURL,
		OrderURL:   c.orderURL,
		Timeout:    cfg.Import.Timeout,
	}, db.NewStorage(dbConn), logger, m)

	res, err := im.Run(ctx)
	c.pushMetrics(ctx, m, logger)
	if err != nil {
		logger.Error("Import failed", gecho.Field("error", err.Error()))
		return subcommands.ExitFailure
	}

	fmt.Fprintf(os.Stdout, "import %s finished\n", res.RunID)
	fmt.Fprintf(os.Stdout, "  products: %d created, %d updated, %d skipped\n", res.Products.Created, res.Products.Updated, res.Products.Skipped)
	fmt.Fprintf(os.Stdout, "  tenders:  %d created, %d updated, %d skipped\n", res.Tenders.Created, res.Tenders.Updated, res.Tenders.Skipped)
	fmt.Fprintf(os.Stdout, "  orders:   %d created, %d updated, %d skipped\n", res.Orders.Created, res.Orders.Updated, res.Orders.Skipped)
	return subcommands.ExitSuccess
}

// pushMetrics отправляет счётчики импорта, даже если импорт прервался.
// Ошибка Pushgateway не делает импорт неуспешным.
func (c *importCmd) pushMetrics(ctx context.Context, m *metrics.Metrics, logger *gecho.Logger) {
	if c.pushgateway == "" {
		return
	}
	if err := m.Push(ctx, c.pushgateway, "licitaciones_import"); err != nil {
		logger.Warn("Failed to push import metrics",
			gecho.Field("pushgateway", c.pushgateway),
			gecho.Field("error", err.Error()),
		)
	}
}
