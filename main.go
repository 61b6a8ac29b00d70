package main

import "videoindex/cmd"

func main() {
	cmd.Execute()
}
