package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/go-kit/kit/log/term"

	"github.com/tendermint/tendermint/libs/log"
)

var logger = log.NewNopLogger()

func main() {
	var durationInt, connections, rate int
	var maxID uint64
	var verbose bool

	flagSet := flag.NewFlagSet("rpc-bench", flag.ExitOnError)
	flagSet.IntVar(&connections, "c", 1, "Connections to keep open per endpoint")
	flagSet.IntVar(&durationInt, "T", 10, "Exit after the specified amount of time in seconds")
	flagSet.IntVar(&rate, "r", 100, "Queries per second per connection")
	flagSet.Uint64Var(&maxID, "max-id", 100, "Upper bound for randomized proposal/round ids")
	flagSet.BoolVar(&verbose, "v", false, "Verbose output")

	flagSet.Usage = func() {
		fmt.Println(`Flood an optibft node's read-only jsonrpc routes over websocket.

Usage:
	rpc-bench [-c 1] [-T 10] [-r 100] [endpoint]

Examples:
	rpc-bench 127.0.0.1:26657`)
		fmt.Println("Flags:")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if flagSet.NArg() != 1 {
		flagSet.Usage()
		os.Exit(1)
	}
	endpoint := flagSet.Arg(0)

	if verbose {
		// color errors red
		colorFn := func(keyvals ...interface{}) term.FgBgColor {
			for i := 1; i < len(keyvals); i += 2 {
				if _, ok := keyvals[i].(error); ok {
					return term.FgBgColor{Fg: term.White, Bg: term.Red}
				}
			}
			return term.FgBgColor{}
		}
		logger = log.NewTMLoggerWithColorFn(log.NewSyncWriter(os.Stdout), colorFn)
	}

	q := newQuerier(endpoint, connections, rate, maxID)
	q.SetLogger(logger)
	if err := q.Start(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger.Info("started querier", "endpoint", endpoint, "conns", connections, "rate", rate)

	timer := time.NewTimer(time.Duration(durationInt) * time.Second)
	<-timer.C
	q.Stop()
}
