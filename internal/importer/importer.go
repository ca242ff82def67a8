// Package importer loads catalog CSV exports into the product store.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/domain"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

// CSVImporter reads catalog CSV rows and inserts or updates products.
// A row without a key continues the previous product and may only add images.
type CSVImporter struct {
	reader      *csv.Reader
	productRepo ProductWriter
	currency    string
	logger      *zap.Logger
}

func NewCSVImporter(r io.Reader, repo ProductWriter, defaultCurrency string, logger *zap.Logger) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1
	csvr.TrimLeadingSpace = true
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CSVImporter{
		reader:      csvr,
		productRepo: repo,
		currency:    strings.ToUpper(strings.TrimSpace(defaultCurrency)),
		logger:      logger.Named("importer"),
	}
}

// Run parses rows and upserts products grouped by product key.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	for _, required := range []string{"key", "sku", "name", "price"} {
		if _, ok := index[required]; !ok {
			return 0, fmt.Errorf("missing required column %q", required)
		}
	}

	var (
		current  *domain.Product
		imported int
		line     = 1
	)

	for {
		record, err := i.reader.Read()
		line++
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}

		if pick(record, index, "key") == "" {
			if img := pick(record, index, "image_url"); img != "" && current != nil {
				appendImage(current, img)
			}
			continue
		}

		if current != nil {
			if err := i.save(ctx, *current); err != nil {
				return imported, err
			}
			imported++
		}
		p, err := i.parseRow(record, index)
		if err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}
		current = &p
	}

	if current != nil {
		if err := i.save(ctx, *current); err != nil {
			return imported, err
		}
		imported++
	}

	i.logger.Info("import finished", zap.Int("products", imported))
	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, p domain.Product) error {
	if _, err := i.productRepo.Upsert(ctx, p); err != nil {
		return fmt.Errorf("upsert product %q: %w", p.Key, err)
	}
	i.logger.Debug("product imported", zap.String("key", p.Key), zap.String("sku", p.SKU))
	return nil
}

func (i *CSVImporter) parseRow(record []string, index map[string]int) (domain.Product, error) {
	p := domain.Product{
		ID:          pick(record, index, "id"),
		Key:         pick(record, index, "key"),
		SKU:         pick(record, index, "sku"),
		Name:        pick(record, index, "name"),
		Description: pick(record, index, "description"),
		Currency:    strings.ToUpper(pick(record, index, "currency")),
		Attributes:  map[string]interface{}{},
	}
	if p.Currency == "" {
		p.Currency = i.currency
	}
	if p.Name == "" || p.SKU == "" || p.Currency == "" {
		return domain.Product{}, fmt.Errorf("invalid product row (missing required fields) for key %q", p.Key)
	}
	if p.ID != "" && len(p.ID) != 36 {
		return domain.Product{}, fmt.Errorf("invalid id for key %q: %s", p.Key, p.ID)
	}

	var err error
	if p.Price, err = parseMoney(pick(record, index, "price")); err != nil || p.Price <= 0 {
		return domain.Product{}, fmt.Errorf("invalid price for key %q", p.Key)
	}
	if raw := pick(record, index, "compare_at_price"); raw != "" {
		cmp, err := parseMoney(raw)
		if err != nil {
			return domain.Product{}, fmt.Errorf("invalid compare_at_price for key %q: %w", p.Key, err)
		}
		p.CompareAtPrice = &cmp
	}
	if p.WeightGrams, err = parseGrams(pick(record, index, "weight_grams")); err != nil {
		return domain.Product{}, fmt.Errorf("invalid weight_grams for key %q: %w", p.Key, err)
	}
	if p.ShippingWeightGrams, err = parseGrams(pick(record, index, "shipping_weight_grams")); err != nil {
		return domain.Product{}, fmt.Errorf("invalid shipping_weight_grams for key %q: %w", p.Key, err)
	}
	if p.RequiresShipping, err = parseBool(pick(record, index, "requires_shipping"), true); err != nil {
		return domain.Product{}, fmt.Errorf("invalid requires_shipping for key %q: %w", p.Key, err)
	}
	if p.IsFragile, err = parseBool(pick(record, index, "is_fragile"), false); err != nil {
		return domain.Product{}, fmt.Errorf("invalid is_fragile for key %q: %w", p.Key, err)
	}
	if p.IsHazardous, err = parseBool(pick(record, index, "is_hazardous"), false); err != nil {
		return domain.Product{}, fmt.Errorf("invalid is_hazardous for key %q: %w", p.Key, err)
	}
	if p.IsActive, err = parseBool(pick(record, index, "active"), true); err != nil {
		return domain.Product{}, fmt.Errorf("invalid active for key %q: %w", p.Key, err)
	}
	if raw := pick(record, index, "stock"); raw != "" {
		if p.StockQuantity, err = strconv.Atoi(raw); err != nil || p.StockQuantity < 0 {
			return domain.Product{}, fmt.Errorf("invalid stock for key %q", p.Key)
		}
	}
	if img := pick(record, index, "image_url"); img != "" {
		appendImage(&p, img)
	}
	return p, nil
}

func appendImage(p *domain.Product, url string) {
	images, _ := p.Attributes["images"].([]string)
	p.Attributes["images"] = append(images, url)
}

// parseMoney reads an amount in major units, e.g. "1499.99".
func parseMoney(raw string) (domain.Money, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, err
	}
	if d.IsNegative() {
		return 0, errors.New("must not be negative")
	}
	return domain.MoneyFromDecimal(d), nil
}

func parseGrams(raw string) (*int64, error) {
	if raw == "" {
		return nil, nil
	}
	g, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	if g < 0 {
		return nil, errors.New("must not be negative")
	}
	return &g, nil
}

func parseBool(raw string, def bool) (bool, error) {
	if raw == "" {
		return def, nil
	}
	switch strings.ToLower(raw) {
	case "yes", "y":
		return true, nil
	case "no", "n":
		return false, nil
	}
	return strconv.ParseBool(raw)
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
