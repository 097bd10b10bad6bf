package main

import "github.com/nan-gameware/wowdb/cmd"

var execute = cmd.Execute

func main() {
	execute()
}
