package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/docopt/docopt-go"
	"github.com/fiatjaf/nspvtest/common"
	"github.com/fiatjaf/nspvtest/nspv"
	"github.com/mitchellh/go-homedir"
)

var log = common.Logger()
var config common.Config

const USAGE = `nspvcli

Usage:
  nspvcli [--datadir=<dir>] [--chain=<chain>] <method> [<params>...]

Options:
  --datadir=<dir>  where config.yaml lives [default: ~/.nspvtest].
  --chain=<chain>  which chain's nspv to talk to, overrides the config.

Params are sent as JSON scalars when they parse as one (true, false, null,
numbers), as strings otherwise.
`

func main() {
	// parse args
	opts, err := docopt.ParseDoc(USAGE)
	if err != nil {
		return
	}

	// find datadir
	config.DataDir, _ = opts.String("--datadir")
	config.DataDir, _ = homedir.Expand(config.DataDir)

	// read config file
	config.ReadConfig()
	if chain, _ := opts.String("--chain"); chain != "" {
		config.Chain = chain
	}

	endpoint, err := config.Endpoint()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid endpoint")
	}
	client, err := nspv.New(endpoint, nspv.Options{Timeout: config.Timeout})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create client")
	}
	defer client.Close()

	// run the RPC call
	method, _ := opts.String("<method>")
	params := opts["<params>"].([]string)

	reply, err := client.Invoke(method, parseParams(params)...)
	var decodeErr *nspv.DecodeError
	switch {
	case errors.As(err, &decodeErr):
		log.Fatal().Err(err).Msg("got an invalid response from nspv")
	case err != nil:
		log.Fatal().Err(err).Str("endpoint", endpoint).
			Msg("couldn't reach nspv. is it running?")
	}

	var printable interface{}
	json.Unmarshal(reply, &printable)
	pretty, _ := json.MarshalIndent(printable, "", "  ")
	fmt.Println(string(pretty))
}

func parseParams(args []string) []interface{} {
	params := make([]interface{}, len(args))
	for i, arg := range args {
		params[i] = arg

		var v interface{}
		if err := json.Unmarshal([]byte(arg), &v); err != nil {
			continue
		}
		switch v.(type) {
		case nil, bool, float64:
			params[i] = v
		}
	}
	return params
}
