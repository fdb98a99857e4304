package main

import "github.com/pharo-llm/pharo-copilot/cli"

func main() {
	cli.Execute()
}
