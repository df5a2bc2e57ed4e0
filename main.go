package main

import (
	"github.com/discflight/discimg/cmd"
)

func main() {
	cmd.Execute()
}
