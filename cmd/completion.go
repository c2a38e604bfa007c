package cmd

import (
	"flag"
	"os"
	"strings"

	"github.com/etnz/invest"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Completion returns the shell completion of every command registered in c.
// Security flags complete with the ids declared in the ledger.
func Completion(c *subcommands.Commander) *complete.Command {
	root := &complete.Command{
		Sub:   make(map[string]*complete.Command),
		Flags: flagPredictors(flag.CommandLine),
	}
	c.VisitCommands(func(_ *subcommands.CommandGroup, sub subcommands.Command) {
		fs := flag.NewFlagSet(sub.Name(), flag.ContinueOnError)
		sub.SetFlags(fs)
		root.Sub[sub.Name()] = &complete.Command{Flags: flagPredictors(fs)}
	})
	return root
}

func flagPredictors(fs *flag.FlagSet) map[string]complete.Predictor {
	flags := make(map[string]complete.Predictor)
	fs.VisitAll(func(f *flag.Flag) {
		switch f.Name {
		case "s":
			flags[f.Name] = complete.PredictFunc(predictSecurities)
		case "ledger-file":
			flags[f.Name] = predict.Files("*.jsonl")
		case "dsn":
			flags[f.Name] = predict.Files("*.db")
		case "store":
			flags[f.Name] = predict.Set{"memory", "sqlite", "postgres"}
		case "amortization":
			flags[f.Name] = predict.Set{invest.Bullet.String(), invest.Custom.String()}
		default:
			if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
				flags[f.Name] = predict.Nothing
			} else {
				flags[f.Name] = predict.Something
			}
		}
	})
	return flags
}

// predictSecurities lists the declared security ids starting with prefix.
func predictSecurities(prefix string) []string {
	filename := firstOf(os.Getenv(EnvLedgerFile), "ledger.jsonl")
	f, err := os.Open(filename)
	if err != nil {
		return nil
	}
	defer f.Close()
	ledger, err := invest.DecodeLedger(f)
	if err != nil {
		return nil
	}
	var ids []string
	for sec := range ledger.Securities() {
		if strings.HasPrefix(sec.ID(), prefix) {
			ids = append(ids, sec.ID())
		}
	}
	return ids
}
