package client

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/elifred2022/bokadillo/internal/cache"
	"github.com/elifred2022/bokadillo/internal/config"
	"github.com/elifred2022/bokadillo/internal/credential"
	"github.com/elifred2022/bokadillo/internal/entity"
	"github.com/elifred2022/bokadillo/internal/repository"
	"github.com/elifred2022/bokadillo/internal/search"
	"github.com/elifred2022/bokadillo/internal/service"
	"github.com/elifred2022/bokadillo/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/elifred2022/bokadillo/service/client")

// Reason codes reported in error details.
const (
	CodeNotRegistered      = "not_registered"
	CodeNoPasswordSet      = "no_password_set"
	CodeInvalidCredentials = "invalid_credentials"
	CodeDuplicateEmail     = "duplicate_email"
	CodePasswordTooLong    = "password_too_long"
)

// Module provides the client service to Fx.
var Module = fx.Provide(NewService)

// Service manages client accounts and their credentials.
type Service struct {
	*service.Records[entity.Client]
	clients  *repository.Clients
	location *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

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
	return &Service{
		// Listings are never cached: they carry password hashes.
		Records: service.NewRecords[entity.Client](p.Clients, service.RecordsConfig[entity.Client]{
			Name:   "ClientService",
			What:   "client",
			ID:     func(c entity.Client) string { return c.ID },
			Cache:  p.Cache,
			Events: p.Publisher,
			Logger: p.Logger,
		}),
		clients:  p.Clients,
		location: loc,
		now:      time.Now,
		logger:   p.Logger,
	}, nil
}

// Registration is the self-service sign-up payload.
type Registration struct {
	Name     string
	Phone    *string
	Email    string
	Address  *string
	Password string
}

// List returns the clients matching q.
func (s *Service) List(ctx context.Context, q string) ([]entity.Client, error) {
	items, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return search.Clients(items, q), nil
}

// Create stores a client entered by staff. The account has no password
// until one is set.
func (s *Service) Create(ctx context.Context, in entity.Client) (entity.Client, error) {
	if err := validate(&in); err != nil {
		return entity.Client{}, err
	}
	in.PasswordHash = nil
	if in.CreatedAt == "" {
		in.CreatedAt = s.today()
	}
	created, err := s.Records.Create(ctx, in)
	return created, duplicateEmail(err)
}

// Update replaces a client's details. The stored password hash and
// creation date are kept when in leaves them unset.
func (s *Service) Update(ctx context.Context, id string, in entity.Client) (entity.Client, error) {
	if err := validate(&in); err != nil {
		return entity.Client{}, err
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return entity.Client{}, err
	}
	if in.PasswordHash == nil {
		in.PasswordHash = current.PasswordHash
	}
	if in.CreatedAt == "" {
		in.CreatedAt = current.CreatedAt
	}
	updated, err := s.Records.Update(ctx, id, in)
	return updated, duplicateEmail(err)
}

// Register creates an account that can log in right away.
func (s *Service) Register(ctx context.Context, r Registration) (entity.Client, error) {
	ctx, span := serviceTracer.Start(ctx, "ClientService.Register")
	defer span.End()

	in := entity.Client{
		Name:    r.Name,
		Phone:   r.Phone,
		Email:   r.Email,
		Address: r.Address,
	}
	if err := validate(&in); err != nil {
		return entity.Client{}, err
	}
	hash, err := hashPassword(r.Password)
	if err != nil {
		if errorbank.Is(err, errorbank.KindInternal) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "hash failed")
		}
		return entity.Client{}, err
	}
	in.PasswordHash = &hash
	in.CreatedAt = s.today()

	created, err := s.Records.Create(ctx, in)
	return created, duplicateEmail(err)
}

// Login checks credentials and returns the client.
func (s *Service) Login(ctx context.Context, email, password string) (entity.Client, error) {
	ctx, span := serviceTracer.Start(ctx, "ClientService.Login")
	defer span.End()

	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return entity.Client{}, errorbank.BadRequest("email and password are required")
	}
	c, err := s.clients.GetByEmail(ctx, email)
	if err != nil {
		err = service.Translate(err, "client")
		if errorbank.Is(err, errorbank.KindNotFound) {
			return entity.Client{}, errorbank.NotFound("email is not registered", errorbank.WithCode(CodeNotRegistered))
		}
		return entity.Client{}, err
	}
	if !c.HasPassword() {
		return entity.Client{}, errorbank.BadRequest("account has no password set", errorbank.WithCode(CodeNoPasswordSet))
	}
	if !credential.Verify(password, *c.PasswordHash) {
		s.logger.Info("login rejected", zap.String("client_id", c.ID))
		return entity.Client{}, errorbank.Unauthorized("invalid credentials", errorbank.WithCode(CodeInvalidCredentials))
	}
	return c, nil
}

// SetPassword stores a new password hash for the client with id.
func (s *Service) SetPassword(ctx context.Context, id, password string) (entity.Client, error) {
	if err := checkPassword(password); err != nil {
		return entity.Client{}, err
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return entity.Client{}, err
	}
	hash, err := hashPassword(password)
	if err != nil {
		return entity.Client{}, err
	}
	current.PasswordHash = &hash
	return s.Records.Update(ctx, id, current)
}

func (s *Service) today() string {
	return s.now().In(s.location).Format(time.DateOnly)
}

func checkPassword(password string) error {
	switch err := credential.Check(password); {
	case errors.Is(err, credential.ErrTooShort):
		return errorbank.BadRequest("password must have at least 6 characters")
	case errors.Is(err, credential.ErrTooLong):
		return errPasswordTooLong()
	}
	return nil
}

func errPasswordTooLong() error {
	return errorbank.BadRequest("password must have at most 72 bytes", errorbank.WithCode(CodePasswordTooLong))
}

func hashPassword(password string) (string, error) {
	if err := checkPassword(password); err != nil {
		return "", err
	}
	hash, err := credential.Hash(password)
	if errors.Is(err, credential.ErrTooLong) {
		return "", errPasswordTooLong()
	}
	if err != nil {
		return "", errorbank.Internal("failed to hash password", errorbank.WithCause(err))
	}
	return hash, nil
}

func validate(in *entity.Client) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" {
		return errorbank.BadRequest("name is required")
	}
	if in.Email == "" {
		return errorbank.BadRequest("email is required")
	}
	addr, err := mail.ParseAddress(in.Email)
	if err != nil {
		return errorbank.BadRequest("email is not valid", errorbank.WithCause(err))
	}
	// "Ana <ana@x.com>" is stored as the bare address so logins match it.
	in.Email = addr.Address
	return nil
}

func duplicateEmail(err error) error {
	if errorbank.Is(err, errorbank.KindConflict) {
		return errorbank.Conflict("email is already registered", errorbank.WithCode(CodeDuplicateEmail), errorbank.WithCause(err))
	}
	return err
}
