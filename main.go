package main

import "github.com/Rezanikmanesh-79/Karamoozi/cmd"

func main() {
	cmd.Execute()
}
