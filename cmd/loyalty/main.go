package main

import "loyalty-engine/internal/cli"

func main() {
	cli.Execute()
}
