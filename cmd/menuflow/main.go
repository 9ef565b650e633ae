package main

import (
	"github.com/menuflow/menuflow/internal/cli"
)

func main() {
	cli.Execute()
}
