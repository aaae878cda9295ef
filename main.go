package main

import "github.com/wsn-sim/wsn-sim/cmd"

func main() {
	cmd.Execute()
}
