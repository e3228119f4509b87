package main

import "github.com/josephlewis42/honeybash/cmd"

func main() {
	cmd.Execute()
}
