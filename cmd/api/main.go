package main

import (
	"go.uber.org/fx"

	"github.com/elifred2022/bokadillo/internal/app"
)

func main() {
	fx.New(app.Module).Run()
}
