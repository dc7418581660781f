// Package main is the colorblob-ctl command.
package main

import (
	"log"
	"os"

	"go.viam.com/colorblob/cli"
)

func main() {
	app := cli.NewControlApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
