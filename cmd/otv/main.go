package main

import "github.com/OpenTraceLab/OpenTraceView/cmd/otv/cmd"

func main() {
	cmd.Execute()
}
