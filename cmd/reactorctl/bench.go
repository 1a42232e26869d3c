package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/reactor-go/reactor"
	"github.com/reactor-go/reactor/reactively"
)

var (
	benchWidths  = []int{1, 10, 100, 1_000}
	benchHeights = []int{1, 10, 100, 1_000}
	benchIters   = 100
)

// intReadable lets a chain step be built over either the leading Cell or a
// prior Formula without a type switch inside the hot loop.
type intReadable interface {
	Read() (int, error)
}

func benchCommand() *cli.Command {
	return &cli.Command{
		Name:  "bench",
		Usage: "compare reactor's propagation latency against reactively",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			summary := tablewriter.NewWriter(os.Stdout)
			summary.SetHeader([]string{"engine", "grid", "iterations", "total time", "updates/sec"})

			benchReactor(summary)
			benchReactively(summary)

			summary.Render()
			return nil
		},
	}
}

// grid grounded on cmd/benchmark/main.go's benchmarkAlien: a width-many fan
// of height-deep chains hanging off one source, each chain terminated with
// a listener so a write actually has somewhere to propagate to.
func benchReactor(summary *tablewriter.Table) {
	tbl := table.NewWriter()
	tbl.SetTitle("reactor")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"grid", "avg", "min", "p75", "p99", "max"})

	for _, w := range benchWidths {
		for _, h := range benchHeights {
			rt := reactor.NewRuntime()
			src := reactor.NewCell(rt, 1)
			tach := tachymeter.New(&tachymeter.Config{Size: benchIters})

			for i := 0; i < w; i++ {
				var prev intReadable = src
				for j := 0; j < h; j++ {
					p := prev
					f := reactor.NewFormula(rt, func() (int, error) {
						v, err := p.Read()
						return v + 1, err
					})
					prev = f
				}
				prev.(*reactor.Formula[int]).OnChange(func() {})
			}

			start := time.Now()
			for i := 0; i < benchIters; i++ {
				iterStart := time.Now()
				src.Write(i + 1)
				tach.AddTime(time.Since(iterStart))
			}
			total := time.Since(start)

			calc := tach.Calc()
			tbl.AppendRow(table.Row{
				fmt.Sprintf("%d x %d", w, h), calc.Time.Avg, calc.Time.Min, calc.Time.P75, calc.Time.P99, calc.Time.Max,
			})
			appendSummary(summary, "reactor", w, h, total)
		}
	}
	tbl.Render()
}

func benchReactively(summary *tablewriter.Table) {
	for _, w := range benchWidths {
		for _, h := range benchHeights {
			rctx := &reactively.ReactiveContext{}
			sources := make([]*reactively.Reactive[int], w)
			for i := range sources {
				sources[i] = reactively.Signal(rctx, i)
			}

			for i := range sources {
				src := sources[i]
				var last *reactively.Reactive[int] = src
				for j := 0; j < h; j++ {
					prev := last
					last = reactively.Memo(rctx, func() int { return prev.Read() + 1 })
				}
				reactively.Effect(rctx, func() { last.Read() })
			}

			start := time.Now()
			for i := 0; i < benchIters; i++ {
				sources[i%len(sources)].Write(i)
			}
			appendSummary(summary, "reactively", w, h, time.Since(start))
		}
	}
}

func appendSummary(summary *tablewriter.Table, engine string, w, h int, total time.Duration) {
	rate := float64(benchIters) / total.Seconds()
	summary.Append([]string{
		engine,
		fmt.Sprintf("%d x %d", w, h),
		humanize.Comma(int64(benchIters)),
		total.String(),
		humanize.Comma(int64(rate)),
	})
}
