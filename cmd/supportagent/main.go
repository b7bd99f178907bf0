package main

import "supportagent/internal/cli"

func main() {
	cli.Execute()
}
