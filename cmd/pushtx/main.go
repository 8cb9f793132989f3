// Command pushtx connects directly to the Bitcoin P2P network, selects a
// number of random peers through DNS, and broadcasts one or more
// transactions. If Tor is running on the same system, by default it
// attempts to connect through a fresh circuit; running the Tor browser in
// the background is usually sufficient for this to work.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alexvanin/pushtx/pkg/bitcoinnet"
	"github.com/alexvanin/pushtx/pkg/pushtx"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	app := cli.NewApp()
	app.Name = "pushtx"
	app.Usage = "broadcast Bitcoin transactions directly into the P2P network"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "tor-mode, m", Usage: "tor mode: no, try, must (default: try)"},
		cli.BoolFlag{Name: "dry-run, d", Usage: "perform the whole process except the sending part"},
		cli.BoolFlag{Name: "testnet, t", Usage: "connect to testnet instead of mainnet"},
		cli.StringFlag{Name: "file, f", Usage: "path to a file of line-delimited hex transactions; stdin if absent"},
		cli.StringFlag{Name: "config, c", Usage: "path to a YAML config file supplying defaults; explicit flags still win"},
		cli.IntFlag{Name: "verbose, v", Usage: "verbosity level (0-3)"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	log := newLogger(ctx.Int("verbose"))
	defer log.Sync() //nolint:errcheck

	opts, err := buildOpts(ctx, log)
	if err != nil {
		return cli.NewExitError(err, 2)
	}

	if opts.DryRun {
		fmt.Println("! ** DRY RUN MODE **")
	}

	txs, err := readTransactions(ctx.String("file"))
	if err != nil {
		return cli.NewExitError(err, 2)
	}
	if len(txs) == 0 {
		return cli.NewExitError("no transactions to broadcast", 2)
	}

	fmt.Println("* The following transactions will be broadcast:")
	for _, tx := range txs {
		fmt.Printf("  - %s\n", tx.ID())
	}

	return printProgress(ctx, txs, opts, opts.Network)
}

// buildOpts assembles broadcast options from, in increasing precedence: the
// built-in defaults, an optional --config file, and explicit CLI flags.
// A file config can supply any field the CLI flags leave unset, but an
// explicit flag always overrides it.
func buildOpts(ctx *cli.Context, log *zap.Logger) (pushtx.Opts, error) {
	opts := pushtx.Opts{
		UseTor:          pushtx.TorBestEffort,
		SendUnsolicited: true,
		Logger:          log,
	}

	if path := ctx.String("config"); path != "" {
		fileCfg, err := pushtx.LoadConfig(path)
		if err != nil {
			return pushtx.Opts{}, err
		}
		if err := fileCfg.ApplyTo(&opts); err != nil {
			return pushtx.Opts{}, err
		}
	}

	if ctx.IsSet("tor-mode") {
		m, err := pushtx.ParseTorMode(ctx.String("tor-mode"))
		if err != nil {
			return pushtx.Opts{}, err
		}
		opts.UseTor = m
	}
	if ctx.IsSet("testnet") {
		opts.Network = bitcoinnet.Mainnet
		if ctx.Bool("testnet") {
			opts.Network = bitcoinnet.Testnet
		}
	}
	if ctx.IsSet("dry-run") {
		opts.DryRun = ctx.Bool("dry-run")
	}

	return opts, nil
}

func printProgress(ctx *cli.Context, txs []pushtx.Transaction, opts pushtx.Opts, network bitcoinnet.Network) error {
	for info := range pushtx.Broadcast(txs, opts) {
		switch info.Kind {
		case pushtx.InfoResolvingPeers:
			fmt.Println("* Resolving peers from DNS...")
		case pushtx.InfoResolvedPeers:
			fmt.Printf("* Resolved %d peers\n", info.Count)
		case pushtx.InfoConnectingToNetwork:
			fmt.Printf("* Connecting to the P2P network (%s)...\n", network)
			fmt.Printf("  - %s\n", info.TorStatus)
		case pushtx.InfoBroadcast:
			fmt.Printf("* Successful broadcast to peer %s\n", info.Peer)
		case pushtx.InfoDone:
			return reportResult(info.Result, txs)
		}
	}
	return cli.NewExitError("worker disconnected without reporting a result", 1)
}

func reportResult(result pushtx.Result, txs []pushtx.Transaction) error {
	if result.Err != nil {
		return cli.NewExitError(fmt.Sprintf("broadcast failed: %v", result.Err), 1)
	}

	fmt.Printf("* Done! %d acknowledged, %d rejected\n", len(result.Report.Success), len(result.Report.Rejects))

	missing := 0
	for _, tx := range txs {
		if _, ok := result.Report.Success[tx.ID()]; !ok {
			missing++
			fmt.Printf("  - %s was not acknowledged by any peer\n", tx.ID())
		}
	}
	if reason, ok := firstRejectReason(result.Report.Rejects); ok {
		fmt.Printf("  - rejected: %s\n", reason)
	}
	if missing > 0 {
		return cli.NewExitError("partial broadcast failure", 1)
	}
	return nil
}

func firstRejectReason(rejects map[pushtx.TxID]string) (string, bool) {
	for _, reason := range rejects {
		return reason, true
	}
	return "", false
}

func readTransactions(path string) ([]pushtx.Transaction, error) {
	var r io.Reader
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	} else {
		fmt.Fprintln(os.Stderr, "Go ahead and paste some hex-encoded transactions (one per line) ...")
		r = os.Stdin
	}

	var txs []pushtx.Transaction
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		tx, err := pushtx.ParseTransactionHex(line)
		if err != nil {
			return nil, fmt.Errorf("parsing transaction: %w", err)
		}
		txs = append(txs, tx)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return txs, nil
}

func newLogger(verbosity int) *zap.Logger {
	level := zapcore.WarnLevel
	switch {
	case verbosity >= 2:
		level = zapcore.DebugLevel
	case verbosity == 1:
		level = zapcore.InfoLevel
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.DisableStacktrace = true
	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}
