package main

import "github.com/classkit/cmd/classkit/cmd"

func main() {
	cmd.Execute()
}
