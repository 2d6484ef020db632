package main

import "github.com/kailas-cloud/bibq/internal/transport/cli"

func main() {
	cli.Execute()
}
