package main

import "fireworks/cmd"

func main() {
	cmd.Execute()
}
