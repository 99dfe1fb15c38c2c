package main

import "github.com/oar-cd/connectctl/cmd/root"

func main() {
	root.Execute()
}
