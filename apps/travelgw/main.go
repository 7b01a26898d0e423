package main

import "github.com/railzwaylabs/travel-gateway/internal/cli"

func main() {
	cli.Execute()
}
