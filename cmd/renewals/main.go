package main

import (
	_ "time/tzdata"

	"renewals/internal/cli"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		cli.Fatal(err)
	}
}
