package main

import (
	"fxcache/internal/app"

	"github.com/sirupsen/logrus"
)

// @title fxcache API
// @version 1.0
// @description Local cache of currency exchange rates for a selectable base currency.
// @BasePath /api/v1
func main() {
	if err := app.Run(); err != nil {
		logrus.Fatalf("Application stopped: %v", err)
	}
}
