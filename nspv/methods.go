package nspv

import "github.com/fiatjaf/nspvtest/common"

// Typed shortcuts for the methods nspv is known to have. Parameters stay
// untyped on purpose: the node must be probed with false/missing values too.

func (c *Client) Help() (*common.Response, error) {
	return c.Call("help")
}

func (c *Client) GetPeerInfo() ([]*common.Response, error) {
	return c.CallList("getpeerinfo")
}

func (c *Client) GetInfo() (*common.Response, error) {
	return c.Call("getinfo")
}

func (c *Client) GetNewAddress() (*common.Response, error) {
	return c.Call("getnewaddress")
}

func (c *Client) Login(wif interface{}) (*common.Response, error) {
	return c.Call("login", wif)
}

func (c *Client) Logout() (*common.Response, error) {
	return c.Call("logout")
}

// ListTransactions takes (address, isCC, skipcount), all optional.
func (c *Client) ListTransactions(params ...interface{}) (*common.Response, error) {
	return c.Call("listtransactions", params...)
}

// ListUnspent takes (address, isCC, skipcount), all optional.
func (c *Client) ListUnspent(params ...interface{}) (*common.Response, error) {
	return c.Call("listunspent", params...)
}

func (c *Client) Spend(address, amount interface{}) (*common.Response, error) {
	return c.Call("spend", address, amount)
}

func (c *Client) Broadcast(hex interface{}) (*common.Response, error) {
	return c.Call("broadcast", hex)
}

func (c *Client) HdrsProof(prevheight, nextheight interface{}) (*common.Response, error) {
	return c.Call("hdrsproof", prevheight, nextheight)
}

func (c *Client) Notarizations(height interface{}) (*common.Response, error) {
	return c.Call("notarizations", height)
}

func (c *Client) SpentInfo(txid, vout interface{}) (*common.Response, error) {
	return c.Call("spentinfo", txid, vout)
}

func (c *Client) Mempool() (*common.Response, error) {
	return c.Call("mempool")
}

func (c *Client) GetTransaction(params ...interface{}) (*common.Response, error) {
	return c.Call("gettransaction", params...)
}

// Stop asks the node process to exit.
func (c *Client) Stop() (*common.Response, error) {
	return c.Call("stop")
}
