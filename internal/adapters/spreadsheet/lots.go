// internal/adapters/spreadsheet/lots.go
package spreadsheet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/internal/core/ports"
)

// Column layout of a lot sheet. The first row is a header.
const (
	colProductName = iota
	colBrand
	colType
	colBarcode
	colQuantity
	colPurchasePrice
	colSalePriceUnit
	colSalePriceBox
	colSalePriceWholesale
	colExpirationDate
)

// LotRow is one parsed line of a lot sheet
type LotRow struct {
	Line               int
	ProductName        string
	Brand              string
	Type               string
	Barcode            string
	Quantity           int
	PurchasePrice      decimal.Decimal
	SalePriceUnit      decimal.Decimal
	SalePriceBox       decimal.Decimal
	SalePriceWholesale decimal.NullDecimal
	ExpirationDate     *time.Time
}

// RowError reports a line that could not be parsed or imported
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Line, e.Err)
}

// OpenLots parses the first sheet of the workbook at path
func OpenLots(path string) ([]LotRow, []RowError, error) {
	file, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	return ParseLots(file)
}

// ReadLots parses the first sheet of an in-memory workbook
func ReadLots(data []byte) ([]LotRow, []RowError, error) {
	file, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read workbook: %w", err)
	}
	return ParseLots(file)
}

// ParseLots reads lot rows from the first sheet. Blank rows are skipped and
// malformed rows are reported without stopping the parse.
func ParseLots(file *xlsx.File) ([]LotRow, []RowError, error) {
	if len(file.Sheets) == 0 {
		return nil, nil, errors.New("workbook has no sheets")
	}

	var (
		rows    []LotRow
		rowErrs []RowError
		line    int
	)

	err := file.Sheets[0].ForEachRow(func(r *xlsx.Row) error {
		line++
		if line == 1 {
			return nil
		}

		row, err := parseRow(r, line)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err})
			return nil
		}
		if row != nil {
			rows = append(rows, *row)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read rows: %w", err)
	}

	return rows, rowErrs, nil
}

func parseRow(r *xlsx.Row, line int) (*LotRow, error) {
	get := func(i int) string {
		c := r.GetCell(i)
		if c == nil {
			return ""
		}
		return strings.TrimSpace(c.String())
	}

	name := get(colProductName)
	if name == "" {
		return nil, nil
	}

	qty, err := strconv.Atoi(get(colQuantity))
	if err != nil {
		return nil, fmt.Errorf("quantity %q is not a whole number", get(colQuantity))
	}

	row := &LotRow{
		Line:        line,
		ProductName: name,
		Brand:       get(colBrand),
		Type:        strings.ToLower(get(colType)),
		Barcode:     get(colBarcode),
		Quantity:    qty,
	}

	prices := []struct {
		col  int
		name string
		dest *decimal.Decimal
	}{
		{colPurchasePrice, "purchase price", &row.PurchasePrice},
		{colSalePriceUnit, "unit price", &row.SalePriceUnit},
		{colSalePriceBox, "box price", &row.SalePriceBox},
	}
	for _, p := range prices {
		d, err := parseMoney(get(p.col))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.name, err)
		}
		*p.dest = d
	}

	if raw := get(colSalePriceWholesale); raw != "" {
		d, err := parseMoney(raw)
		if err != nil {
			return nil, fmt.Errorf("wholesale price: %w", err)
		}
		row.SalePriceWholesale = decimal.NewNullDecimal(d)
	}

	if raw := get(colExpirationDate); raw != "" {
		expires, err := parseDate(raw)
		if err != nil {
			return nil, err
		}
		row.ExpirationDate = &expires
	}

	return row, nil
}

func parseMoney(s string) (decimal.Decimal, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q is not an amount", s)
	}
	return d, nil
}

// parseDate accepts YYYY-MM-DD text or an Excel serial date
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		t := xlsx.TimeFromExcelTime(serial, false)
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("expiration date %q must be YYYY-MM-DD", s)
}

// ImportSummary counts what an import created
type ImportSummary struct {
	Products int
	Lots     int
	Failed   []RowError
}

// Importer registers parsed rows as products and lots. Lots go through the
// LotService so the quantity and margin floor invariants are enforced.
type Importer struct {
	products ports.ProductCatalog
	lots     ports.LotService
	logger   *slog.Logger
}

// NewImporter creates a new lot sheet importer
func NewImporter(products ports.ProductCatalog, lots ports.LotService, logger *slog.Logger) *Importer {
	return &Importer{
		products: products,
		lots:     lots,
		logger:   logger.With(slog.String("component", "lot_importer")),
	}
}

// Import creates one product per distinct name and brand, then one lot per
// row. A rejected row is recorded and the import continues.
func (i *Importer) Import(ctx context.Context, rows []LotRow) (*ImportSummary, error) {
	summary := &ImportSummary{}
	products := make(map[string]domain.Product)

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		key := strings.ToLower(row.ProductName + "|" + row.Brand)
		product, ok := products[key]
		if !ok {
			product = domain.Product{Name: row.ProductName, Brand: row.Brand, Type: row.Type}
			if err := product.Validate(); err != nil {
				summary.Failed = append(summary.Failed, RowError{Line: row.Line, Err: err})
				continue
			}
			product.PrepareForStorage()
			if err := i.products.SaveProduct(ctx, &product); err != nil {
				return summary, fmt.Errorf("failed to save product %q: %w", row.ProductName, err)
			}
			products[key] = product
			summary.Products++
		}

		lot := &domain.StockLot{
			ProductID:          product.ID,
			Barcode:            row.Barcode,
			InitialQuantity:    row.Quantity,
			CurrentQuantity:    row.Quantity,
			PurchasePrice:      row.PurchasePrice,
			SalePriceUnit:      row.SalePriceUnit,
			SalePriceBox:       row.SalePriceBox,
			SalePriceWholesale: row.SalePriceWholesale,
			ExpirationDate:     row.ExpirationDate,
		}

		if err := i.lots.CreateLot(ctx, lot); err != nil {
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				summary.Failed = append(summary.Failed, RowError{Line: row.Line, Err: err})
				continue
			}
			return summary, fmt.Errorf("failed to save lot on row %d: %w", row.Line, err)
		}
		summary.Lots++
	}

	i.logger.InfoContext(ctx, "lot sheet imported",
		slog.Int("products", summary.Products),
		slog.Int("lots", summary.Lots),
		slog.Int("failed", len(summary.Failed)))

	return summary, nil
}
