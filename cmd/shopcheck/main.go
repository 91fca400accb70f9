package main

import "github.com/networkteam/shopcheck/internal/cli"

func main() {
	cli.Execute()
}
