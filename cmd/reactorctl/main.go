// Command reactorctl exercises the reactor package: demo walks the
// end-to-end scenarios from the design notes, bench compares reactor's
// pull/TxId engine against the kept reactively reference implementation,
// and graph dumps a formula's dependency set.
//
// Grounded on cmd/codegen/main.go's urfave/cli/v3 command/flag structure.
package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "reactorctl",
		Usage: "exercise the reactor reactive graph engine",
		Commands: []*cli.Command{
			demoCommand(),
			benchCommand(),
			graphCommand(),
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
