package sale

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/elifred2022/bokadillo/internal/cache"
	"github.com/elifred2022/bokadillo/internal/config"
	"github.com/elifred2022/bokadillo/internal/entity"
	"github.com/elifred2022/bokadillo/internal/repository"
	"github.com/elifred2022/bokadillo/internal/search"
	"github.com/elifred2022/bokadillo/internal/service"
	"github.com/elifred2022/bokadillo/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/elifred2022/bokadillo/service/sale")

// Module provides the sale service to Fx.
var Module = fx.Provide(NewService)

// Service manages sales and customer orders.
type Service struct {
	*service.Records[entity.Sale]
	articles *repository.Articles
	clients  *repository.Clients
	rules    Rules
	location *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// Rules restricts what customers may order through the order form.
type Rules struct {
	// MinQuantities drops an article from an order below the given quantity.
	MinQuantities map[string]int64
	// AlwaysAllowed articles are orderable in any quantity.
	AlwaysAllowed []string
}

// Orderable reports whether customers may order the article at all.
func (r Rules) Orderable(id string) bool {
	if _, ok := r.MinQuantities[id]; ok {
		return true
	}
	for _, a := range r.AlwaysAllowed {
		if a == id {
			return true
		}
	}
	return false
}

// Accepts reports whether qty of the article may go on an order.
func (r Rules) Accepts(id string, qty int64) bool {
	if qty <= 0 {
		return false
	}
	for _, a := range r.AlwaysAllowed {
		if a == id {
			return true
		}
	}
	if threshold, ok := r.MinQuantities[id]; ok {
		return qty >= threshold
	}
	return false
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Sales     *repository.Sales
	Articles  *repository.Articles
	Clients   *repository.Clients
	Cache     cache.Store
	Config    config.Config
	Logger    *zap.Logger
	Publisher *service.Publisher
}

// NewService wires a new Service instance.
func NewService(p Params) (*Service, error) {
	loc, err := time.LoadLocation(p.Config.Orders.TimeZone)
	if err != nil {
		return nil, err
	}
	records := service.NewRecords[entity.Sale](p.Sales, service.RecordsConfig[entity.Sale]{
		Name:    "SaleService",
		What:    "sale",
		ID:      func(s entity.Sale) string { return s.ID },
		Cache:   p.Cache,
		ListTTL: p.Config.Cache.ListTTL,
		Events:  p.Publisher,
		Logger:  p.Logger,
	})
	records.Annotate(func(s entity.Sale, ev *service.Event) {
		ev.Client = s.Client
		ev.Total = s.Total.String()
		ev.Manufacturing = s.Manufacturing
	})
	return &Service{
		Records:  records,
		articles: p.Articles,
		clients:  p.Clients,
		rules: Rules{
			MinQuantities: p.Config.Orders.MinQuantities,
			AlwaysAllowed: p.Config.Orders.AlwaysAllowed,
		},
		location: loc,
		now:      time.Now,
		logger:   p.Logger,
	}, nil
}

// Listing is a filtered set of sales with its grand total.
type Listing struct {
	Items []entity.Sale
	Total decimal.Decimal
}

// List returns the sales matching query, newest first.
func (s *Service) List(ctx context.Context, query search.SaleQuery) (Listing, error) {
	items, err := s.All(ctx)
	if err != nil {
		return Listing{}, err
	}
	filtered := search.Sales(items, query)
	return Listing{Items: filtered, Total: search.SalesTotal(filtered)}, nil
}

// Create validates and stores a sale entered by staff.
func (s *Service) Create(ctx context.Context, in entity.Sale) (entity.Sale, error) {
	in, err := s.prepare(ctx, in)
	if err != nil {
		return entity.Sale{}, err
	}
	return s.Records.Create(ctx, in)
}

// Update validates and replaces a sale.
func (s *Service) Update(ctx context.Context, id string, in entity.Sale) (entity.Sale, error) {
	in, err := s.prepare(ctx, in)
	if err != nil {
		return entity.Sale{}, err
	}
	return s.Records.Update(ctx, id, in)
}

// ClientOrders lists the sales placed under the name of the client with id.
func (s *Service) ClientOrders(ctx context.Context, clientID string) (Listing, error) {
	c, err := s.client(ctx, clientID)
	if err != nil {
		return Listing{}, err
	}
	items, err := s.All(ctx)
	if err != nil {
		return Listing{}, err
	}
	own := make([]entity.Sale, 0)
	for _, sale := range items {
		if entity.SameName(sale.Client, c.Name) {
			own = append(own, sale)
		}
	}
	search.SortSales(own)
	return Listing{Items: own, Total: search.SalesTotal(own)}, nil
}

// OrderItem is one quantity entered on the customer order form.
type OrderItem struct {
	ArticleID string
	Quantity  int64
}

// PlaceOrder records a manufacturing order for the client with id. Items
// that do not meet their minimum quantity are dropped; lines carry the
// current article name and price.
func (s *Service) PlaceOrder(ctx context.Context, clientID string, items []OrderItem) (entity.Sale, error) {
	ctx, span := serviceTracer.Start(ctx, "SaleService.PlaceOrder", trace.WithAttributes(attribute.String("client.id", clientID)))
	defer span.End()

	c, err := s.client(ctx, clientID)
	if err != nil {
		return entity.Sale{}, err
	}

	qty := make(map[string]int64, len(items))
	order := make([]string, 0, len(items))
	for _, it := range items {
		id := strings.TrimSpace(it.ArticleID)
		if !s.rules.Orderable(id) {
			return entity.Sale{}, errorbank.BadRequest("article "+id+" cannot be ordered", errorbank.WithDetail("article", id))
		}
		if _, seen := qty[id]; !seen {
			order = append(order, id)
		}
		qty[id] += it.Quantity
	}

	lines := make([]entity.Line, 0, len(order))
	for _, id := range order {
		if !s.rules.Accepts(id, qty[id]) {
			continue
		}
		a, err := s.articles.Get(ctx, id)
		if err != nil {
			err = service.Translate(err, "article")
			if errorbank.Is(err, errorbank.KindNotFound) {
				return entity.Sale{}, errorbank.BadRequest("unknown article "+id, errorbank.WithDetail("article", id))
			}
			return entity.Sale{}, err
		}
		lines = append(lines, entity.Line{
			ArticleID: a.ID,
			Name:      a.Name,
			Quantity:  qty[id],
			Total:     a.Price.Mul(decimal.NewFromInt(qty[id])),
		})
	}
	if len(lines) == 0 {
		return entity.Sale{}, errorbank.BadRequest("the order has no articles")
	}

	created, err := s.Records.Create(ctx, entity.Sale{
		Date:          s.today(),
		Client:        strings.TrimSpace(c.Name),
		Lines:         lines,
		Total:         entity.SumLines(lines),
		Manufacturing: true,
	})
	if err != nil {
		return entity.Sale{}, err
	}
	s.Publish(ctx, service.EventOrderPlaced, created)
	s.logger.Info("order placed",
		zap.String("sale_id", created.ID),
		zap.String("client_id", c.ID),
		zap.Int("lines", len(lines)),
	)
	return created, nil
}

func (s *Service) client(ctx context.Context, id string) (entity.Client, error) {
	if _, err := s.CheckID(id); err != nil {
		return entity.Client{}, errorbank.BadRequest("invalid client id")
	}
	c, err := s.clients.Get(ctx, strings.TrimSpace(id))
	if err != nil {
		return entity.Client{}, service.Translate(err, "client")
	}
	return c, nil
}

func (s *Service) prepare(ctx context.Context, in entity.Sale) (entity.Sale, error) {
	in.Date = strings.TrimSpace(in.Date)
	in.Client = strings.TrimSpace(in.Client)
	if in.Date == "" {
		in.Date = s.today()
	}
	if !service.ValidDate(in.Date) {
		return in, errorbank.BadRequest("date must be YYYY-MM-DD")
	}
	if in.Client == "" {
		return in, errorbank.BadRequest("client is required")
	}
	if len(in.Lines) == 0 && (in.LegacyName == nil || strings.TrimSpace(*in.LegacyName) == "") {
		return in, errorbank.BadRequest("at least one line is required")
	}
	lines, err := service.SnapshotNames(ctx, in.Lines, s.lookup)
	if err != nil {
		return in, err
	}
	in.Lines = lines
	if err := service.ValidateLines(in.Lines, in.Total); err != nil {
		return in, err
	}
	return in, nil
}

func (s *Service) lookup(ctx context.Context, id string) (entity.Article, error) {
	a, err := s.articles.Get(ctx, id)
	return a, service.Translate(err, "article")
}

func (s *Service) today() string {
	return s.now().In(s.location).Format(time.DateOnly)
}
