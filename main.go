package main

import (
	"AirCue/cmd"
)

func main() {
	cmd.Execute()
}
