package main

import "songsplitter/cmd"

func main() {
	cmd.Execute()
}
