// Command seed populates a running InsightMart API with a demo seller
// catalog, a customer order and a few reviews. It only talks to the public
// HTTP API, so it works against any deployment.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shopspring/decimal"

	pkgconfig "github.com/insightmart/insightmart/pkg/config"
	"github.com/insightmart/insightmart/pkg/httpclient"
	"github.com/insightmart/insightmart/pkg/logger"
)

type seedConfig struct {
	APIURL           string        `env:"SEED_API_URL" envDefault:"http://localhost:5001"`
	LogLevel         string        `env:"LOG_LEVEL" envDefault:"info"`
	Timeout          time.Duration `env:"SEED_TIMEOUT" envDefault:"2m"`
	SellerEmail      string        `env:"SEED_SELLER_EMAIL" envDefault:"seller@insightmart.dev"`
	CustomerEmail    string        `env:"SEED_CUSTOMER_EMAIL" envDefault:"customer@insightmart.dev"`
	Password         string        `env:"SEED_PASSWORD" envDefault:"insightmart123"`
	ProductsPerGroup int           `env:"SEED_PRODUCTS_PER_CATEGORY" envDefault:"4"`
}

func main() {
	if err := run(); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	var cfg seedConfig
	if err := pkgconfig.Load(&cfg); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New("insightmart-seed", cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	seeder := NewSeeder(cfg.APIURL, httpclient.New(httpclient.DefaultConfig()), log)
	summary, err := seeder.Run(ctx,
		account{Name: "Demo Seller", Email: cfg.SellerEmail, Password: cfg.Password, Role: "seller"},
		account{Name: "Demo Customer", Email: cfg.CustomerEmail, Password: cfg.Password, Role: "customer"},
		demoCatalog(cfg.ProductsPerGroup),
	)
	if err != nil {
		return err
	}

	log.Info("seed complete",
		slog.Int("products", summary.Products),
		slog.Int("orders", summary.Orders),
		slog.Int("reviews", summary.Reviews),
	)
	return nil
}

var categories = []struct {
	name  string
	items []string
	base  int64
}{
	{"Electronics", []string{"Wireless Earbuds", "USB-C Hub", "Mechanical Keyboard", "Webcam", "Portable SSD"}, 49},
	{"Home & Kitchen", []string{"Pour-Over Kettle", "Chef Knife", "Cast Iron Skillet", "Desk Lamp", "Linen Throw"}, 29},
	{"Sports & Outdoors", []string{"Yoga Mat", "Trail Bottle", "Resistance Bands", "Camp Stove", "Day Pack"}, 19},
	{"Books", []string{"Go in Practice", "Data Pipelines", "The Shop Floor", "Field Notes", "Quiet Systems"}, 12},
}

// demoCatalog returns perCategory products for each demo category, capped
// at the number of names each category defines.
func demoCatalog(perCategory int) []productDef {
	var out []productDef
	for ci, c := range categories {
		for i, name := range c.items {
			if i == perCategory {
				break
			}
			price := decimal.New(c.base+int64(i*10), 0).Add(decimal.RequireFromString("0.99"))
			discount := decimal.Zero
			if i%2 == 1 {
				discount = decimal.NewFromInt(10)
			}
			out = append(out, productDef{
				Name:     name,
				SKU:      fmt.Sprintf("DEMO-%d%02d", ci+1, i+1),
				Price:    price,
				Discount: discount,
				Category: c.name,
				Stock:    25 + i*5,
			})
		}
	}
	return out
}
