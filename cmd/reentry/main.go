package main

import "github.com/saturnino-fabrica-de-software/reentry/internal/cli"

func main() {
	cli.Execute()
}
