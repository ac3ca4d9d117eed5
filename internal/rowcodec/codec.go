package rowcodec

import (
	"strconv"
	"strings"

	"github.com/elifred2022/bokadillo/internal/entity"
	"github.com/elifred2022/bokadillo/internal/idalloc"
)

// Codec converts one entity type to and from sheet rows.
type Codec[T any] interface {
	// Collection is the sheet name.
	Collection() string
	// Columns lists the canonical header, in the order Encode writes.
	Columns() []string
	// IDColumn names the identifier column.
	IDColumn() string
	Encode(item T) []string
	Decode(row []string, h Header) (T, error)
	ID(item T) string
	WithID(item T, id string) T
}

// Collection names.
const (
	Articles  = "articulos"
	Clients   = "clientes"
	Suppliers = "proveedores"
	Purchases = "compras"
	Sales     = "ventas"
)

func decodeID(collection, column string, row []string, h Header) (string, error) {
	id := h.Cell(row, column)
	if id == "" {
		return "", malformed(collection, "empty "+column)
	}
	if !idalloc.IsNumeric(id) {
		return "", malformed(collection, column+" "+strings.TrimSpace(id)+" is not numeric")
	}
	return id, nil
}

// ArticleCodec maps entity.Article onto the articulos sheet.
type ArticleCodec struct{}

var articleColumns = []string{"codbarra", "idarticulo", "nombre", "descripcion", "precio", "stock", "categoria"}

func (ArticleCodec) Collection() string { return Articles }
func (ArticleCodec) Columns() []string  { return articleColumns }
func (ArticleCodec) IDColumn() string   { return "idarticulo" }
func (ArticleCodec) ID(a entity.Article) string {
	return a.ID
}
func (ArticleCodec) WithID(a entity.Article, id string) entity.Article {
	a.ID = id
	return a
}

func (ArticleCodec) Encode(a entity.Article) []string {
	return []string{
		a.Barcode,
		a.ID,
		a.Name,
		Deref(a.Description),
		a.Price.String(),
		formatInt(a.Stock),
		Deref(a.Category),
	}
}

func (c ArticleCodec) Decode(row []string, h Header) (entity.Article, error) {
	id, err := decodeID(Articles, c.IDColumn(), row, h)
	if err != nil {
		return entity.Article{}, err
	}
	return entity.Article{
		Barcode:     h.Cell(row, "codbarra"),
		ID:          id,
		Name:        h.Cell(row, "nombre"),
		Description: Optional(h.Cell(row, "descripcion")),
		Price:       ParseDecimal(h.Cell(row, "precio")),
		Stock:       ParseInt(h.Cell(row, "stock")),
		Category:    Optional(h.Cell(row, "categoria")),
	}, nil
}

// ClientCodec maps entity.Client onto the clientes sheet.
type ClientCodec struct{}

var clientColumns = []string{"idcliente", "nombre", "telefono", "email", "direccion", "fechacreacion", "clave"}

func (ClientCodec) Collection() string { return Clients }
func (ClientCodec) Columns() []string  { return clientColumns }
func (ClientCodec) IDColumn() string   { return "idcliente" }
func (ClientCodec) ID(c entity.Client) string {
	return c.ID
}
func (ClientCodec) WithID(c entity.Client, id string) entity.Client {
	c.ID = id
	return c
}

func (ClientCodec) Encode(c entity.Client) []string {
	return []string{
		c.ID,
		c.Name,
		Deref(c.Phone),
		c.Email,
		Deref(c.Address),
		c.CreatedAt,
		Deref(c.PasswordHash),
	}
}

func (c ClientCodec) Decode(row []string, h Header) (entity.Client, error) {
	id, err := decodeID(Clients, c.IDColumn(), row, h)
	if err != nil {
		return entity.Client{}, err
	}
	return entity.Client{
		ID:           id,
		Name:         h.Cell(row, "nombre"),
		Phone:        Optional(h.Cell(row, "telefono")),
		Email:        h.Cell(row, "email"),
		Address:      Optional(h.Cell(row, "direccion")),
		CreatedAt:    h.Cell(row, "fechacreacion"),
		PasswordHash: Optional(h.Cell(row, "clave")),
	}, nil
}

// SupplierCodec maps entity.Supplier onto the proveedores sheet.
type SupplierCodec struct{}

var supplierColumns = []string{"idproveedor", "nombre", "telefono", "email", "direccion", "contacto"}

func (SupplierCodec) Collection() string { return Suppliers }
func (SupplierCodec) Columns() []string  { return supplierColumns }
func (SupplierCodec) IDColumn() string   { return "idproveedor" }
func (SupplierCodec) ID(s entity.Supplier) string {
	return s.ID
}
func (SupplierCodec) WithID(s entity.Supplier, id string) entity.Supplier {
	s.ID = id
	return s
}

func (SupplierCodec) Encode(s entity.Supplier) []string {
	return []string{
		s.ID,
		s.Name,
		Deref(s.Phone),
		Deref(s.Email),
		Deref(s.Address),
		Deref(s.Contact),
	}
}

func (c SupplierCodec) Decode(row []string, h Header) (entity.Supplier, error) {
	id, err := decodeID(Suppliers, c.IDColumn(), row, h)
	if err != nil {
		return entity.Supplier{}, err
	}
	return entity.Supplier{
		ID:      id,
		Name:    h.Cell(row, "nombre"),
		Phone:   Optional(h.Cell(row, "telefono")),
		Email:   Optional(h.Cell(row, "email")),
		Address: Optional(h.Cell(row, "direccion")),
		Contact: Optional(h.Cell(row, "contacto")),
	}, nil
}

// PurchaseCodec maps entity.Purchase onto the compras sheet. The legacy
// free-text description lives in the "articulo" column.
type PurchaseCodec struct{}

var purchaseColumns = []string{"idcompra", "fecha", "proveedor", "factura", "articulo", "articulos", "total"}

func (PurchaseCodec) Collection() string { return Purchases }
func (PurchaseCodec) Columns() []string  { return purchaseColumns }
func (PurchaseCodec) IDColumn() string   { return "idcompra" }
func (PurchaseCodec) ID(p entity.Purchase) string {
	return p.ID
}
func (PurchaseCodec) WithID(p entity.Purchase, id string) entity.Purchase {
	p.ID = id
	return p
}

func (PurchaseCodec) Encode(p entity.Purchase) []string {
	return []string{
		p.ID,
		p.Date,
		p.Supplier,
		Deref(p.Invoice),
		Deref(p.Description),
		EncodeLines(p.Lines),
		p.Total.String(),
	}
}

func (c PurchaseCodec) Decode(row []string, h Header) (entity.Purchase, error) {
	id, err := decodeID(Purchases, c.IDColumn(), row, h)
	if err != nil {
		return entity.Purchase{}, err
	}
	return entity.Purchase{
		ID:          id,
		Date:        h.Cell(row, "fecha"),
		Supplier:    h.Cell(row, "proveedor"),
		Invoice:     Optional(h.Cell(row, "factura")),
		Description: Optional(h.Cell(row, "articulo")),
		Lines:       DecodeLines(h.Cell(row, "articulos")),
		Total:       ParseDecimal(h.Cell(row, "total")),
	}, nil
}

// SaleCodec maps entity.Sale onto the ventas sheet. The legacy free-text
// name lives in the "nombre" column.
type SaleCodec struct{}

var saleColumns = []string{"idventa", "fecha", "cliente", "nombre", "articulos", "total", "entregado", "pedidofabricacion"}

func (SaleCodec) Collection() string { return Sales }
func (SaleCodec) Columns() []string  { return saleColumns }
func (SaleCodec) IDColumn() string   { return "idventa" }
func (SaleCodec) ID(s entity.Sale) string {
	return s.ID
}
func (SaleCodec) WithID(s entity.Sale, id string) entity.Sale {
	s.ID = id
	return s
}

func (SaleCodec) Encode(s entity.Sale) []string {
	return []string{
		s.ID,
		s.Date,
		s.Client,
		Deref(s.LegacyName),
		EncodeLines(s.Lines),
		s.Total.String(),
		s.Delivery,
		FormatBool(s.Manufacturing),
	}
}

func (c SaleCodec) Decode(row []string, h Header) (entity.Sale, error) {
	id, err := decodeID(Sales, c.IDColumn(), row, h)
	if err != nil {
		return entity.Sale{}, err
	}
	return entity.Sale{
		ID:            id,
		Date:          h.Cell(row, "fecha"),
		Client:        h.Cell(row, "cliente"),
		LegacyName:    Optional(h.Cell(row, "nombre")),
		Lines:         DecodeLines(h.Cell(row, "articulos")),
		Total:         ParseDecimal(h.Cell(row, "total")),
		Delivery:      h.Cell(row, "entregado"),
		Manufacturing: ParseBool(h.Cell(row, "pedidofabricacion")),
	}, nil
}

func formatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}
