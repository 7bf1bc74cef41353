package main

import "github.com/encodeous/rankd/cmd"

func main() {
	cmd.Execute()
}
