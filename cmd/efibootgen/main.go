package main

import "github.com/efibootgen/efibootgen/cmd/efibootgen/cmd"

func main() {
	cmd.Execute()
}
