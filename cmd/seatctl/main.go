package main

import "github.com/iliyamo/library-seat-reservation/internal/cli"

func main() {
	cli.Execute()
}
