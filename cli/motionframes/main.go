// Package main is the motionframes command itself.
package main

import (
	"log"
	"os"

	mfcli "go.viam.com/motionframes/cli"
)

func main() {
	app := mfcli.NewApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
