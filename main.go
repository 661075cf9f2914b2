package main

import "github.com/castellic/rednet/cmd"

func main() {
	cmd.Execute()
}
