package main

import "github.com/jcdickinson/docview/cmd"

func main() {
	cmd.Execute()
}
