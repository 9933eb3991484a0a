package main

import "genesis-provision/internal/cli"

func main() {
	cli.Execute()
}
