package main

import "github.com/agentic-research/yomitran/cmd"

func main() {
	cmd.Execute()
}
