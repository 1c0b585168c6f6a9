package spreadsheet_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/minimarket-pos/internal/adapters/memory"
	"github.com/ammerola/minimarket-pos/internal/adapters/spreadsheet"
	"github.com/ammerola/minimarket-pos/internal/core/domain"
	"github.com/ammerola/minimarket-pos/internal/core/services"
	"github.com/ammerola/minimarket-pos/test/helpers"
)

func workbook(t *testing.T, rows [][]string) []byte {
	t.Helper()

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("lots")
	require.NoError(t, err)

	header := []string{"product", "brand", "type", "barcode", "quantity", "purchase", "unit", "box", "wholesale", "expires"}
	for _, values := range append([][]string{header}, rows...) {
		row := sheet.AddRow()
		for _, v := range values {
			row.AddCell().SetString(v)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, file.Write(&buf))
	return buf.Bytes()
}

func TestReadLots(t *testing.T) {
	data := workbook(t, [][]string{
		{"Leche Entera 1L", "Colun", "Lacteos", "7801", "24", "600", "$1,000", "9000", "800", "2026-12-31"},
		{"", "", "", "", "", "", "", "", "", ""},
		{"Arroz 1kg", "Tucapel", "abarrotes", "7802", "diez", "900", "1500", "", "", ""},
		{"Fideos", "Carozzi", "abarrotes", "7803", "12", "500", "800", "7000", "", "46022"},
	})

	rows, rowErrs, err := spreadsheet.ReadLots(data)
	require.NoError(t, err)

	require.Len(t, rows, 2)
	milk := rows[0]
	assert.Equal(t, 2, milk.Line)
	assert.Equal(t, "lacteos", milk.Type)
	assert.Equal(t, 24, milk.Quantity)
	assert.True(t, decimal.NewFromInt(1000).Equal(milk.SalePriceUnit))
	assert.True(t, milk.SalePriceWholesale.Valid)
	require.NotNil(t, milk.ExpirationDate)
	assert.Equal(t, "2026-12-31", milk.ExpirationDate.Format(time.DateOnly))

	noodles := rows[1]
	assert.False(t, noodles.SalePriceWholesale.Valid)
	require.NotNil(t, noodles.ExpirationDate)
	assert.Equal(t, "2025-12-31", noodles.ExpirationDate.Format(time.DateOnly))

	require.Len(t, rowErrs, 1)
	assert.Equal(t, 4, rowErrs[0].Line)
	assert.Contains(t, rowErrs[0].Error(), "quantity")
}

func TestImporter_Import(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	lotService := services.NewLotService(store, store, nil, time.Minute, domain.DefaultPricingPolicy(), helpers.TestLogger())
	importer := spreadsheet.NewImporter(store, lotService, helpers.TestLogger())

	rows, rowErrs, err := spreadsheet.ReadLots(workbook(t, [][]string{
		{"Leche Entera 1L", "Colun", "lacteos", "7801", "24", "600", "1000", "9000", "800", "2026-12-31"},
		{"Leche Entera 1L", "Colun", "lacteos", "7801", "12", "600", "1000", "9000", "800", "2027-01-15"},
		{"Yogurt", "Soprole", "lacteos", "7804", "6", "300", "500", "2800", "310", ""},
	}))
	require.NoError(t, err)
	require.Empty(t, rowErrs)

	summary, err := importer.Import(ctx, rows)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Products)
	assert.Equal(t, 2, summary.Lots)
	require.Len(t, summary.Failed, 1)
	assert.Equal(t, 4, summary.Failed[0].Line, "wholesale 310 is under the 315 margin floor")

	snapshot := store.Snapshot()
	total := 0
	for _, qty := range snapshot {
		total += qty
	}
	assert.Equal(t, 36, total)
}
