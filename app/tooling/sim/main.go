// This program runs a single process chain simulation. It drives the same
// state machinery the node runs, feeding it the genesis and seed fixtures,
// and reports what the chain did.
package main

import (
	"github.com/hashlight/chain/app/tooling/sim/cmd"
)

func main() {
	cmd.Execute()
}
