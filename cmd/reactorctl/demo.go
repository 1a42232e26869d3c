package main

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/reactor-go/reactor"
	"github.com/urfave/cli/v3"
)

func demoCommand() *cli.Command {
	return &cli.Command{
		Name:  "demo",
		Usage: "walk the six literal end-to-end scenarios from the design notes",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			scenarios := []struct {
				name string
				run  func()
			}{
				{"lazy constant formula", demoLazyConstant},
				{"skip-on-equal", demoSkipOnEqual},
				{"diamond with cancellation", demoDiamondCancellation},
				{"branching dependency set", demoBranchingDeps},
				{"subscription laziness", demoSubscriptionLaziness},
				{"re-validation short-circuit", demoShortCircuit},
			}
			for i, s := range scenarios {
				fmt.Printf("%d. %s\n", i+1, s.name)
				s.run()
			}
			return nil
		},
	}
}

func demoLazyConstant() {
	rt := reactor.NewRuntime()
	count := 0
	f := reactor.NewFormula(rt, func() (int, error) {
		count++
		return 42, nil
	})
	fmt.Printf("   before any read: count=%d\n", count)
	for i := 0; i < 3; i++ {
		v, _ := f.Peek()
		fmt.Printf("   read -> %d\n", v)
	}
	fmt.Printf("   after three reads: count=%d\n", count)
}

func demoSkipOnEqual() {
	rt := reactor.NewRuntime()
	count := 0
	c := reactor.NewCell(rt, 1.0)
	f := reactor.NewFormula(rt, func() (float64, error) {
		count++
		v, _ := c.Read()
		return v, nil
	})

	v, _ := f.Peek()
	fmt.Printf("   read -> %v count=%d\n", v, count)

	c.Write(2.0)
	v, _ = f.Peek()
	fmt.Printf("   set 2, read -> %v count=%d\n", v, count)

	c.Write(2.0)
	v, _ = f.Peek()
	fmt.Printf("   set 2 (equal), read -> %v count=%d\n", v, count)

	c.Write(math.NaN())
	v, _ = f.Peek()
	fmt.Printf("   set NaN, read -> %v count=%d\n", v, count)

	c.Write(math.NaN())
	v, _ = f.Peek()
	fmt.Printf("   set NaN (self-equal), read -> %v count=%d\n", v, count)
}

func demoDiamondCancellation() {
	rt := reactor.NewRuntime()
	c1 := reactor.NewCell(rt, 1)
	c2 := reactor.NewCell(rt, 2)
	f1Count := 0
	f1 := reactor.NewFormula(rt, func() (int, error) {
		f1Count++
		a, _ := c1.Read()
		b, _ := c2.Read()
		return a + b, nil
	})
	f2Count := 0
	f2 := reactor.NewFormula(rt, func() (int, error) {
		f2Count++
		v, _ := f1.Read()
		return v, nil
	})

	v, _ := f2.Peek()
	fmt.Printf("   read f2 -> %d\n", v)

	c1.Write(2)
	c2.Write(1)
	v, _ = f2.Peek()
	fmt.Printf("   after swap, read f2 -> %d (f1 evaluated %d times, f2 evaluated %d times)\n", v, f1Count, f2Count)
}

func demoBranchingDeps() {
	rt := reactor.NewRuntime()
	c1 := reactor.NewCell(rt, true)
	c2 := reactor.NewCell(rt, 1)
	f := reactor.NewFormula(rt, func() (int, error) {
		useC2, _ := c1.Read()
		if useC2 {
			v, _ := c2.Read()
			return v, nil
		}
		return 0, nil
	})

	fired := 0
	f.OnChange(func() { fired++ })

	v, _ := f.Peek()
	fmt.Printf("   read -> %d\n", v)

	c2.Write(2)
	v, _ = f.Peek()
	fmt.Printf("   set c2=2, fired=%d, read -> %d\n", fired, v)

	c1.Write(false)
	v, _ = f.Peek()
	fmt.Printf("   set c1=false, fired=%d, read -> %d\n", fired, v)

	before := fired
	c2.Write(3)
	f.Peek()
	fmt.Printf("   set c2=3 (out of dep set), fired changed=%v\n", fired != before)
}

func demoSubscriptionLaziness() {
	rt := reactor.NewRuntime()
	getCount := 0
	var notify func()
	s := reactor.NewSubscription(rt, func() (int, error) {
		getCount++
		return getCount, nil
	}, func(fn func()) { notify = fn }, func(func()) { notify = nil })

	s.Peek()
	s.Peek()
	fmt.Printf("   no observers: two peeks -> get invoked %d times\n", getCount)

	s.OnChange(func() {})
	before := getCount
	s.Peek()
	s.Peek()
	fmt.Printf("   after listener attach: two peeks -> get invoked %d more times\n", getCount-before)
	_ = notify
}

func demoShortCircuit() {
	rt := reactor.NewRuntime()
	c := reactor.NewCell(rt, 1)
	latestVersionCalls := 0
	f1 := reactor.NewFormula(rt, func() (int, error) {
		latestVersionCalls++
		v, _ := c.Read()
		return v, nil
	})
	f2 := reactor.NewFormula(rt, func() (int, error) {
		v, _ := f1.Read()
		return v, nil
	})
	f3 := reactor.NewFormula(rt, func() (int, error) {
		sum := 0
		for i := 0; i < 5; i++ {
			v, _ := f2.Read()
			sum += v
		}
		return sum, nil
	})

	before := latestVersionCalls
	v, err := f3.Peek()
	if err != nil && !errors.Is(err, reactor.ErrOutOfContext) {
		fmt.Printf("   unexpected error: %v\n", err)
	}
	fmt.Printf("   read f3 -> %d, f1 validated %d time(s)\n", v, latestVersionCalls-before)
}
