package main

import (
	"os"

	"ctxit/cli"
)

func main() {
	os.Exit(cli.Execute())
}
