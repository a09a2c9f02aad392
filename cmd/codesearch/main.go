package main

import "github.com/codegrove/codesearch/internal/cli"

func main() {
	cli.Execute()
}
