package main

import "github.com/tpodg/nfsprov/internal/cli"

func main() {
	cli.Execute()
}
