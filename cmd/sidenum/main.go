package main

import "github.com/railsight/sidenum/cmd/sidenum/cmd"

func main() {
	cmd.Execute()
}
