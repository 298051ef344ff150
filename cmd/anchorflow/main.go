package main

import "github.com/stellaprotocol/anchorflow/cmd/anchorflow/cmd"

func main() {
	cmd.Execute()
}
