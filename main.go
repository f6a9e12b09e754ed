package main

import "github.com/shiftnotes/apiserver/cmd"

func main() {
	cmd.Execute()
}
