package main

import (
	"fmt"
	"os"

	"github.com/multikonnect/cartwatch/internal/application/startup"
)

func main() {
	if err := startup.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "cartwatch: %v\n", err)
		os.Exit(1)
	}
}
