package rowcodec

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elifred2022/bokadillo/internal/entity"
)

func ptr(s string) *string { return &s }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func roundTrip[T any](t *testing.T, c Codec[T], item T) T {
	t.Helper()
	got, err := c.Decode(c.Encode(item), NewHeader(c.Columns()))
	require.NoError(t, err)
	return got
}

// assertSameLines compares lines, treating decimals by value.
func assertSameLines(t *testing.T, want, got []entity.Line) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, want[i].Total.Equal(got[i].Total), "line %d total %s != %s", i, want[i].Total, got[i].Total)
		w, g := want[i], got[i]
		w.Total, g.Total = decimal.Zero, decimal.Zero
		assert.Equal(t, w, g)
	}
}

func TestArticleRoundTrip(t *testing.T) {
	c := ArticleCodec{}
	full := entity.Article{
		Barcode: "7790001", ID: "12", Name: "Queso tequeño", Description: ptr("caja x 12"),
		Price: dec("1250.5"), Stock: 40, Category: ptr("congelados"),
	}
	minimal := entity.Article{ID: "3", Name: "Pan", Price: dec("10")}

	for _, want := range []entity.Article{full, minimal} {
		got := roundTrip[entity.Article](t, c, want)
		assert.True(t, want.Price.Equal(got.Price))
		got.Price, want.Price = decimal.Zero, decimal.Zero
		assert.Equal(t, want, got)
	}
}

func TestClientRoundTrip(t *testing.T) {
	c := ClientCodec{}
	for _, want := range []entity.Client{
		{ID: "1", Name: "Ana", Phone: ptr("351 555 0000"), Email: "ana@example.com", Address: ptr("Calle 1"),
			CreatedAt: "2024-05-01", PasswordHash: ptr("$2a$10$abcdefghijklmnopqrstuv")},
		{ID: "2", Name: "Bruno", Email: "bruno@example.com", CreatedAt: "2024-05-02"},
	} {
		assert.Equal(t, want, roundTrip[entity.Client](t, c, want))
	}
}

func TestSupplierRoundTrip(t *testing.T) {
	c := SupplierCodec{}
	for _, want := range []entity.Supplier{
		{ID: "1", Name: "Lácteos del Sur", Phone: ptr("011"), Email: ptr("ventas@lacteos.com"), Address: ptr("Ruta 9"), Contact: ptr("Marta")},
		{ID: "2", Name: "Harinas"},
	} {
		assert.Equal(t, want, roundTrip[entity.Supplier](t, c, want))
	}
}

func TestPurchaseRoundTrip(t *testing.T) {
	c := PurchaseCodec{}
	itemized := entity.Purchase{
		ID: "5", Date: "2024-03-01", Supplier: "Harinas", Invoice: ptr("A-0001-00000042"),
		Lines: []entity.Line{
			{ArticleID: "1", Name: "Harina 000", Quantity: 10, Total: dec("4500.75")},
			{ArticleID: "2", Name: "Sal \"fina\" <1kg>", Quantity: 2, Total: dec("300")},
		},
		Total: dec("4800.75"),
	}
	legacy := entity.Purchase{ID: "6", Date: "2023-01-01", Supplier: "Viejo", Description: ptr("varios"), Total: dec("99.9")}

	got := roundTrip[entity.Purchase](t, c, itemized)
	assertSameLines(t, itemized.Lines, got.Lines)
	assert.True(t, itemized.Total.Equal(got.Total))
	assert.Equal(t, itemized.Invoice, got.Invoice)
	assert.Nil(t, got.Description)

	got = roundTrip[entity.Purchase](t, c, legacy)
	assert.Nil(t, got.Lines)
	assert.True(t, got.IsLegacy())
	assert.Equal(t, legacy.Description, got.Description)
	assert.Nil(t, got.Invoice)
}

func TestSaleRoundTrip(t *testing.T) {
	c := SaleCodec{}
	want := entity.Sale{
		ID: "7", Date: "2024-05-01", Client: "Ana",
		Lines:    []entity.Line{{ArticleID: "123", Name: "Queso tequeño", Quantity: 15, Total: dec("150")}},
		Total:    dec("150"),
		Delivery: "en reparto", Manufacturing: true,
	}
	got := roundTrip[entity.Sale](t, c, want)
	assertSameLines(t, want.Lines, got.Lines)
	assert.True(t, want.Total.Equal(got.Total))
	got.Lines, got.Total, want.Lines, want.Total = nil, decimal.Zero, nil, decimal.Zero
	assert.Equal(t, want, got)

	legacy := entity.Sale{ID: "8", Date: "2022-01-01", Client: "Bruno", LegacyName: ptr("docena de empanadas"), Total: dec("10")}
	got = roundTrip[entity.Sale](t, c, legacy)
	assert.True(t, got.IsLegacy())
	assert.Equal(t, legacy.LegacyName, got.LegacyName)
	assert.False(t, got.Manufacturing)
	assert.Equal(t, "", got.Delivery)
}

func TestDecodeToleratesMissingTrailingColumns(t *testing.T) {
	c := SaleCodec{}
	got, err := c.Decode([]string{"9", "2024-01-01", "Ana"}, NewHeader(c.Columns()))
	require.NoError(t, err)
	assert.Equal(t, "9", got.ID)
	assert.Equal(t, "Ana", got.Client)
	assert.True(t, got.Total.IsZero())
	assert.Nil(t, got.Lines)
	assert.False(t, got.Manufacturing)
}

func TestDecodeUsesHeaderOrder(t *testing.T) {
	h := NewHeader([]string{"Nombre", " IDArticulo ", "Precio", "extra"})
	got, err := ArticleCodec{}.Decode([]string{"Pan", "4", "$ 1.234,50", "ignored"}, h)
	require.NoError(t, err)
	assert.Equal(t, "4", got.ID)
	assert.Equal(t, "Pan", got.Name)
	assert.True(t, dec("1234.5").Equal(got.Price))
	assert.Equal(t, "", got.Barcode)
}

func TestDecodeRejectsBadIdentifiers(t *testing.T) {
	c := ClientCodec{}
	h := NewHeader(c.Columns())
	for _, row := range [][]string{{}, {""}, {"  "}, {"abc", "Ana"}, {"1.5"}} {
		_, err := c.Decode(row, h)
		assert.True(t, errors.Is(err, ErrMalformedRow), "row %q", row)
	}
}

func TestDecodeIsPermissiveOnNumbers(t *testing.T) {
	c := ArticleCodec{}
	got, err := c.Decode([]string{"", "1", "Pan", "", "gratis", "muchos"}, NewHeader(c.Columns()))
	require.NoError(t, err)
	assert.True(t, got.Price.IsZero())
	assert.Zero(t, got.Stock)
}

func TestDecodeLinesFallsBackToLegacy(t *testing.T) {
	assert.Nil(t, DecodeLines("not json"))
	assert.Nil(t, DecodeLines("[]"))
	lines := DecodeLines(`[{"idarticulo":"1","nombre":"Pan","cantidad":2,"total":"20.5"}]`)
	require.Len(t, lines, 1)
	assert.Equal(t, int64(2), lines[0].Quantity)
	assert.True(t, dec("20.5").Equal(lines[0].Total))
}

func TestParseDecimal(t *testing.T) {
	tests := map[string]string{
		"12.5":      "12.5",
		"12,5":      "12.5",
		"$1,234.50": "1234.5",
		"1.234,50":  "1234.5",
		"(10)":      "-10",
		"€ 3":       "3",
		"":          "0",
		"n/a":       "0",
		"=\"42\"":   "42",
		" 7 ":       "7",
	}
	for in, want := range tests {
		assert.True(t, dec(want).Equal(ParseDecimal(in)), "ParseDecimal(%q) = %s", in, ParseDecimal(in))
	}
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"TRUE", "true", "si", "Sí", "1", "x"} {
		assert.True(t, ParseBool(s), s)
	}
	for _, s := range []string{"", "FALSE", "no", "0"} {
		assert.False(t, ParseBool(s), s)
	}
}

func TestArrange(t *testing.T) {
	h := NewHeader([]string{"nombre", "idcliente", "", "email"})
	row := Arrange(h, []string{"idcliente", "nombre", "email", "clave"}, []string{"1", "Ana", "a@x.com", "hash"})
	assert.Equal(t, []string{"Ana", "1", "", "a@x.com"}, row)
}

func TestOverlayKeepsUnknownCells(t *testing.T) {
	h := NewHeader([]string{"idcliente", "notas", "nombre"})
	base := []string{"1", "llamar antes", "Ana", "extra"}
	row := Overlay(base, h, []string{"idcliente", "nombre"}, []string{"1", "Ana María"})
	assert.Equal(t, []string{"1", "llamar antes", "Ana María", "extra"}, row)
	assert.Equal(t, "Ana", base[2])
}
