package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fiatjaf/nspvtest/common"
	"github.com/fiatjaf/nspvtest/conformance"
	"github.com/fiatjaf/nspvtest/nspv"
	"github.com/kr/pretty"
	"github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog"
)

var log = common.Logger()
var config common.Config

const HISTORY_FILE = "history.bolt"

func main() {
	var (
		only    string
		history int
		debug   bool
	)

	// find datadir
	flag.StringVar(&config.DataDir, "datadir", "~/.nspvtest", "the base directory we will use to read your config file from and store run history into.")
	flag.StringVar(&only, "run", "", "comma-separated scenario names to run, all of them if empty.")
	flag.IntVar(&history, "history", 0, "print the last N recorded runs and exit.")
	flag.BoolVar(&debug, "debug", false, "log every rpc call.")
	flag.Parse()
	config.DataDir, _ = homedir.Expand(config.DataDir)

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// read config file and environment
	config.ReadConfig()
	pretty.Log(config.Redacted())

	if history > 0 {
		printHistory(history)
		return
	}

	if err := config.Check(); err != nil {
		log.Error().Err(err).Msg("skipping the run")
		os.Exit(2)
	}

	opts, err := conformance.OptionsFromConfig(&config)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}
	if err := opts.Chain.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid chain fixture")
	}
	if only != "" {
		opts.Only = strings.Split(only, ",")
	}

	// optional full node to cross-check heights
	if config.FullNodeRPC != "" {
		fullnode, err := common.OpenFullNodeRPC(config.FullNodeRPC)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open full node RPC")
		}
		if _, err := fullnode.GetBlockCount(); err != nil {
			log.Fatal().Err(err).Str("uri", config.Redacted().FullNodeRPC).
				Msg("failed to connect to full node RPC")
		}
		opts.FullNode = fullnode
	}

	// initiate nspv connection
	endpoint, err := config.Endpoint()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid endpoint")
	}
	client, err := nspv.New(endpoint, nspv.Options{Timeout: config.Timeout, Logger: &log})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create nspv client")
	}
	defer client.Close()

	// start from a logged out state, the reply doesn't matter
	client.Logout()

	run := conformance.New(client, opts, log)
	report, err := run.Execute()
	if err != nil {
		log.Fatal().Err(err).Msg("couldn't run")
	}

	recordRun(report)

	log.Info().Str("chain", report.Chain).Msg(report.Summary())
	for _, res := range report.Results {
		if res.Status != conformance.PASSED {
			log.Info().Str("scenario", res.Name).Str("status", string(res.Status)).
				AnErr("error", res.Err).Msg("")
		}
	}
	os.Exit(report.ExitCode())
}

func recordRun(report conformance.Report) {
	dbpath := filepath.Join(config.DataDir, HISTORY_FILE)
	h, err := common.OpenHistory(dbpath)
	if err != nil {
		log.Warn().Err(err).Str("path", dbpath).Msg("failed to open history, not recording this run")
		return
	}
	defer h.Close()

	if err := h.Record(report.Record()); err != nil {
		log.Warn().Err(err).Msg("failed to record run")
	}
}

func printHistory(n int) {
	dbpath := filepath.Join(config.DataDir, HISTORY_FILE)
	h, err := common.OpenHistory(dbpath)
	if err != nil {
		log.Fatal().Err(err).Str("path", dbpath).Msg("failed to open history")
	}
	defer h.Close()

	runs, err := h.Last(n)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read history")
	}
	for _, run := range runs {
		failed := 0
		for _, res := range run.Results {
			if res.Status != string(conformance.PASSED) {
				failed++
			}
		}
		fmt.Printf("%s  %-5s  %d scenarios, %d not passed\n",
			run.StartedAt, run.Chain, len(run.Results), failed)
		for _, res := range run.Results {
			if res.Status != string(conformance.PASSED) {
				fmt.Printf("    %-16s %-8s %s\n", res.Name, res.Status, res.Error)
			}
		}
	}
}
