package main

import "github.com/iyadk/idbot/cmd"

func main() {
	cmd.Execute()
}
