package main

import "github.com/paraclete/paraclete/internal/cli"

func main() {
	cli.Execute()
}
