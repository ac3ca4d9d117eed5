package app

import (
	"go.uber.org/fx"

	"github.com/elifred2022/bokadillo/internal/backend"
	"github.com/elifred2022/bokadillo/internal/cache"
	"github.com/elifred2022/bokadillo/internal/config"
	"github.com/elifred2022/bokadillo/internal/database"
	"github.com/elifred2022/bokadillo/internal/lock"
	"github.com/elifred2022/bokadillo/internal/logger"
	"github.com/elifred2022/bokadillo/internal/messaging"
	"github.com/elifred2022/bokadillo/internal/observability"
	"github.com/elifred2022/bokadillo/internal/preference"
	"github.com/elifred2022/bokadillo/internal/repository"
	grpcserver "github.com/elifred2022/bokadillo/internal/server/grpc"
	httpserver "github.com/elifred2022/bokadillo/internal/server/http"
	"github.com/elifred2022/bokadillo/internal/service"
	servicearticle "github.com/elifred2022/bokadillo/internal/service/article"
	serviceclient "github.com/elifred2022/bokadillo/internal/service/client"
	servicepurchase "github.com/elifred2022/bokadillo/internal/service/purchase"
	servicesale "github.com/elifred2022/bokadillo/internal/service/sale"
	servicesupplier "github.com/elifred2022/bokadillo/internal/service/supplier"
	transporthttp "github.com/elifred2022/bokadillo/internal/transport/http"
	"github.com/elifred2022/bokadillo/internal/worker"
	workerevents "github.com/elifred2022/bokadillo/internal/worker/events"
)

// Infra provides configuration, logging and the store plumbing.
var Infra = fx.Options(
	config.Module,
	logger.Module,
	observability.Module,
	cache.Module,
	database.Module,
	messaging.Module,
	backend.Module,
	lock.Module,
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	Infra,
	repository.Module,
	service.Module,
	servicearticle.Module,
	serviceclient.Module,
	servicesupplier.Module,
	servicepurchase.Module,
	servicesale.Module,
	preference.Module,
)

// HTTP wires the HTTP transport and gRPC health on top of the core modules.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	grpcserver.Module,
	transporthttp.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Infra,
	worker.Module,
	workerevents.Module,
)

// Module is the default application wiring.
var Module = HTTP
