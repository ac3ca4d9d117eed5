package http

import (
	"go.uber.org/fx"

	articletransport "github.com/elifred2022/bokadillo/internal/transport/http/article"
	authtransport "github.com/elifred2022/bokadillo/internal/transport/http/auth"
	clienttransport "github.com/elifred2022/bokadillo/internal/transport/http/client"
	healthtransport "github.com/elifred2022/bokadillo/internal/transport/http/health"
	preferencetransport "github.com/elifred2022/bokadillo/internal/transport/http/preference"
	purchasetransport "github.com/elifred2022/bokadillo/internal/transport/http/purchase"
	saletransport "github.com/elifred2022/bokadillo/internal/transport/http/sale"
	suppliertransport "github.com/elifred2022/bokadillo/internal/transport/http/supplier"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	articletransport.Module,
	authtransport.Module,
	clienttransport.Module,
	healthtransport.Module,
	preferencetransport.Module,
	purchasetransport.Module,
	saletransport.Module,
	suppliertransport.Module,
)
