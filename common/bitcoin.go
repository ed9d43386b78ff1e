package common

import (
	"net/url"

	rpcclient "github.com/stevenroose/go-bitcoin-core-rpc"
)

// OpenFullNodeRPC connects to the komodod (bitcoind-compatible) RPC the nspv
// node is following, so its view of the chain can be cross-checked.
func OpenFullNodeRPC(uri string) (*rpcclient.Client, error) {
	params, err := url.Parse(uri)
	if err != nil {
		return nil, err
	}
	password, _ := params.User.Password()
	return rpcclient.New(&rpcclient.ConnConfig{
		Host: params.Host,
		User: params.User.Username(),
		Pass: password,
	})
}
