package main

import "schedulehub/cmd"

func main() {
	cmd.Execute()
}
