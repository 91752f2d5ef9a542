package main

import "github.com/kamusis/pss-index/cmd"

func main() {
	cmd.Execute()
}
