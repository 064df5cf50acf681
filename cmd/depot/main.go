package main

import (
	"github.com/starworks/depot/cmd/depot/cmd"
)

func main() {
	cmd.Execute()
}
