package main

import "github.com/hqchain/hqchain/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
