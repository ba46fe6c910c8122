package main

import "estatekg/relate/cmd"

func main() {
	cmd.Execute()
}
