package main

import "github.com/mselser95/swapgate/cmd"

func main() {
	cmd.Execute()
}
