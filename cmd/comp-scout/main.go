package main

import "github.com/pfrederiksen/comp-scout/internal/cli"

func main() {
	cli.Execute()
}
