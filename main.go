package main

import "github.com/caedis/mod-update-checker/cmd"

func main() {
	cmd.Execute()
}
