package main

import "github.com/linguara-ai/linguara-cli/cmd"

func main() {
	cmd.Execute()
}
