// Command pepper writes a new server-wide password pepper file.
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/aschepis/backscratcher/multichat/auth"
)

func main() {
	out := flag.StringP("out", "o", "pepper.bin", "Path of the pepper file to create")
	flag.Parse()

	if err := auth.WritePepper(*out); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote new pepper to %s\n", *out)
}
