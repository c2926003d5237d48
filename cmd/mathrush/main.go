package main

import "github.com/mathrush/mathrush-go/internal/cli"

func main() {
	cli.Execute()
}
