package main

import "github.com/tanq16/bootfetch/cmd"

func main() {
	cmd.Execute()
}
