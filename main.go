package main

import "github.com/agentic-research/reactus/cmd"

func main() {
	cmd.Execute()
}
