package main

import (
	"os"

	inkwellcmder "github.com/inkwellco/inkwell/cmd/inkwell"
)

func main() {
	cmd := inkwellcmder.NewInkwellCmd()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
