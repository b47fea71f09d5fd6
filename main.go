package main

import "demo-labeler/cli"

func main() {
	cli.Execute()
}
