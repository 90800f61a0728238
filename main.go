package main

import "github.com/quillhq/claude-gateway/cmd"

func main() {
	cmd.Execute()
}
