package main

import (
	"os"

	"github.com/arloliu/go-sdi12/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
