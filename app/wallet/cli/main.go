// This program provides a simple wallet for signing and submitting
// transactions to a node.
package main

import (
	"github.com/hashlight/chain/app/wallet/cli/cmd"
)

func main() {
	cmd.Execute()
}
