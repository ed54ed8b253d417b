package main

import "github.com/c74/jucegen/cmd/jucegen/internal"

func main() {
	internal.Execute()
}
