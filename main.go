package main

import "github.com/jvaldiviezo/contasys/cmd"

func main() {
	cmd.Execute()
}
