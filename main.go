package main

import "github.com/fluxtrack/flux/cmd/flux"

func main() {
	flux.Execute()
}
