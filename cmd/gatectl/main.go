package main

import (
	"github.com/mkarls/gatekeeper/internal/cli"
)

func main() {
	cli.Execute()
}
