// Huegroups groups photographs of vehicles by the color of their paint. Run
// `huegroups help` for its commands.
package main

import (
	"os"

	"github.com/BitPonyLLC/huegroups/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
