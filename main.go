package main

import "github.com/faceproctor/faceproctor/cmd"

func main() {
	cmd.Execute()
}
