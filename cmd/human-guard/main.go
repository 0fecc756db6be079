package main

import "github.com/humanmd/guard/internal/cli"

func main() {
	cli.Execute()
}
