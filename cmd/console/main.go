package main

import (
	"fxcache/internal/app"

	"github.com/sirupsen/logrus"
)

func main() {
	if err := app.RunConsole(); err != nil {
		logrus.Fatalf("Console stopped: %v", err)
	}
}
