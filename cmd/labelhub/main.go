// Package main is the entry point for the LabelHub server.
package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/kart-io/labelhub/cmd/labelhub/app"
)

func main() {
	app.NewApp().Run()
}
