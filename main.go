package main

import "github.com/aiSzzPL-retroio/cdimage/cmd"

func main() {
	cmd.Execute()
}
