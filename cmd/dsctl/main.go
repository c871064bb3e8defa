package main

import "dsclient/cmd/dsctl/cmds"

func main() {
	cmds.Execute()
}
