package main

import (
	"os"

	"github.com/ukidney/docchat/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
