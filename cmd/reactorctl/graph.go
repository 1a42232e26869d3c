package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/reactor-go/reactor"
)

func graphCommand() *cli.Command {
	return &cli.Command{
		Name:  "graph",
		Usage: "dump a small sample dependency graph as Graphviz dot",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			rt := reactor.NewRuntime()
			c1 := reactor.NewCell(rt, 1)
			c2 := reactor.NewCell(rt, 2)
			f1 := reactor.NewFormula(rt, func() (int, error) {
				a, _ := c1.Read()
				b, _ := c2.Read()
				return a + b, nil
			})
			f2 := reactor.NewFormula(rt, func() (int, error) {
				v, _ := f1.Read()
				return v * 2, nil
			})
			f2.OnChange(func() {})
			f2.Peek()

			rows := []NodeReport{
				{ID: fmt.Sprintf("%d", f1.ID()), Version: f1.Version(), Dependencies: idStrings(f1.DebugDependencies())},
				{ID: fmt.Sprintf("%d", f2.ID()), Version: f2.Version(), Dependencies: idStrings(f2.DebugDependencies())},
			}
			fmt.Print(GraphReport("reactorctl sample graph", rows))
			return nil
		},
	}
}

func idStrings(ids []reactor.NodeID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = fmt.Sprintf("%d", id)
	}
	return out
}
