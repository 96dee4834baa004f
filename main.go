package main

import "github.com/batonhq/baton/internal/cmd"

func main() {
	cmd.Execute()
}
