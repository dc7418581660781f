// Package main is the detect-blobs command.
package main

import (
	"log"
	"os"

	"go.viam.com/colorblob/cli"
)

func main() {
	app := cli.NewDetectApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
