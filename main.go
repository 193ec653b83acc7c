package main

import (
	"certer/cmd"
)

func main() {
	cmd.Execute()
}
