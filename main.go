package main

import "gatedfm/cmd"

func main() {
	cmd.Execute()
}
