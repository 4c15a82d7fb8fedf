package main

import "github.com/santif/openid/cli"

func main() {
	cli.Execute()
}
