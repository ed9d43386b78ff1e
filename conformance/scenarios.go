package conformance

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/fiatjaf/nspvtest/common"
	"github.com/fiatjaf/nspvtest/expect"
)

type Scenario struct {
	Name        string
	Description string
	Check       func(r *Run) error
}

// SCENARIOS in the order they run. stop must come last, it kills the node.
var SCENARIOS = []Scenario{
	{"help", "testing help call", checkHelp},
	{"getpeerinfo", "testing peerinfo call, checking peers status", checkPeerInfo},
	{"balance", "checking wif balance", checkBalance},
	{"getinfo", "testing getinfo call", checkGetInfo},
	{"hdrsproof", "testing hdrsproof call", checkHdrsProof},
	{"notarizations", "testing notarization call", checkNotarizations},
	{"getnewaddress", "testing getnewaddr call", checkGetNewAddress},
	{"login", "testing log in call", checkLogin},
	{"listtransactions", "testing listtransactions call", checkListTransactions},
	{"listunspent", "testing listunspent call", checkListUnspent},
	{"spend", "testing spend call", checkSpend},
	{"broadcast", "testing broadcast call", checkBroadcast},
	{"mempool", "testing mempool call", checkMempool},
	{"spentinfo", "testing spentinfo call", checkSpentInfo},
	{"gettransaction", "testing gettransaction call", checkGetTransaction},
	{"autologout", "testing auto logout", checkAutoLogout},
	{"stop", "resending funds and stopping the nspv process", checkStop},
}

// retcodes a failed broadcast may carry
var BROADCAST_FAILED = []interface{}{-1, -2, -3}

// the node takes heights as strings
func height(h int) string { return strconv.Itoa(h) }

func all(checks ...error) error {
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	return nil
}

func checkHelp(r *Run) error {
	resp, err := r.client.Help()
	if err != nil {
		return abort("can't connect daemon", err)
	}
	return all(
		expect.Success(resp),
		expect.Contains(resp, "methods"),
	)
}

func checkPeerInfo(r *Run) error {
	peers, err := r.client.GetPeerInfo()
	if err != nil {
		return err
	}
	if len(peers) == 0 {
		return errors.New("empty peer list")
	}
	return expect.Contains(peers[0], "ipaddress")
}

func checkBalance(r *Run) error {
	if err := r.loginFunded(); err != nil {
		return abort("couldn't log in with the funded wif", err)
	}
	amount, err := r.waitForBalance()
	if err != nil {
		return err
	}
	r.log.Info().Float64("balance", amount).Msg("wallet is funded")
	return nil
}

func checkGetInfo(r *Run) error {
	resp, err := r.client.GetInfo()
	if err != nil {
		return err
	}
	if err := all(
		expect.Success(resp),
		expect.Contains(resp, "notarization"),
		expect.Contains(resp, "header"),
	); err != nil {
		return err
	}

	h, ok := resp.Float("height")
	if !ok {
		return nil
	}
	if int(h) < r.opts.Chain.MinChainHeight {
		return fmt.Errorf("node height %d is below the known chain height %d",
			int(h), r.opts.Chain.MinChainHeight)
	}
	if r.opts.FullNode != nil {
		blocks, err := r.opts.FullNode.GetBlockCount()
		if err != nil {
			return fmt.Errorf("full node: %w", err)
		}
		// a new block may reach the thin client first
		if int64(h) > blocks+1 {
			return fmt.Errorf("node height %d is ahead of the full node at %d", int(h), blocks)
		}
		r.log.Info().Int64("fullnode", blocks).Int("nspv", int(h)).Msg("heights")
	}
	return nil
}

func checkHdrsProof(r *Run) error {
	chain := r.opts.Chain

	resp, err := r.client.HdrsProof(false, false)
	if err != nil {
		return err
	}
	if err := expect.Error(resp); err != nil {
		return err
	}

	resp, err = r.client.HdrsProof(height(chain.HdrsProofLow), height(chain.HdrsProofHigh))
	if err != nil {
		return err
	}
	return all(
		expect.Success(resp),
		expect.Contains(resp, "prevht"),
		expect.Contains(resp, "nextht"),
		expect.Contains(resp, "headers"),
		expect.Equal(resp.Get("numhdrs"), chain.NumHdrsExpected),
	)
}

func checkNotarizations(r *Run) error {
	resp, err := r.client.Notarizations(false)
	if err != nil {
		return err
	}
	if err := expect.Error(resp); err != nil {
		return err
	}

	resp, err = r.client.Notarizations(height(r.opts.Chain.NotarizationHeight))
	if err != nil {
		return err
	}
	return all(
		expect.Success(resp),
		expect.Contains(resp, "prev"),
		expect.Contains(resp, "next"),
	)
}

func checkGetNewAddress(r *Run) error {
	key, err := r.newKey()
	if err != nil {
		return err
	}
	if !common.ValidAddress(key.address) {
		return fmt.Errorf("generated address %q is not valid", key.address)
	}
	return nil
}

func checkLogin(r *Run) error {
	key, err := r.newKey()
	if err != nil {
		return err
	}
	derived, err := common.AddressFromWIF(key.wif)
	if err != nil {
		return fmt.Errorf("node generated a bad wif: %w", err)
	}

	resp, err := r.client.Login(key.wif)
	if err != nil {
		return err
	}
	if err := all(
		expect.Success(resp),
		expect.Contains(resp, "status"),
		expect.Contains(resp, "address"),
	); err != nil {
		return err
	}
	if err := expect.Equal(resp.String("address"), key.address); err != nil {
		return fmt.Errorf("addr mismatch: %w", err)
	}
	if err := expect.Equal(resp.String("address"), derived); err != nil {
		return fmt.Errorf("addr doesn't match the wif: %w", err)
	}

	// logging out twice is fine
	if err := all(r.logout(), r.logout()); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	// and the session is really gone: with the funded wallet a spend that
	// still went through would show it
	address, amount, err := r.spendable()
	if err != nil {
		return err
	}
	if err := r.loginFunded(); err != nil {
		return err
	}
	if err := all(r.logout(), r.logout()); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	resp, err = r.client.Spend(address, amount)
	if err != nil {
		return err
	}
	if err := expect.Error(resp); err != nil {
		return fmt.Errorf("spend after logout: %w", err)
	}
	r.log.Debug().Str("kind", resp.Err.Kind.String()).Msg("spend after logout refused")
	return nil
}

// checkListing runs the three listing cases shared by listtransactions and
// listunspent: no address and no session, a known address, and the same
// address with isCC=1 which must not list anything.
func checkListing(r *Run, call func(...interface{}) (*common.Response, error), key string, skip int) error {
	known := r.opts.Chain.TxListAddress

	// the node may keep reporting the address of the session it just closed
	previous, err := r.newSession()
	if err != nil {
		return err
	}
	if err := r.logout(); err != nil {
		return err
	}

	resp, err := call(false, false, false)
	if err != nil {
		return err
	}
	if err := all(
		expect.Success(resp),
		expect.NotContains(resp, key),
	); err != nil {
		return err
	}
	if addr := resp.String("address"); addr != "" && addr != previous {
		return fmt.Errorf("addr mismatch: %w", expect.Equal(addr, previous))
	}

	for _, isCC := range []int{0, 1} {
		resp, err := call(known, isCC, skip)
		if err != nil {
			return err
		}
		check := expect.Contains
		if isCC == 1 {
			check = expect.NotContains
		}
		if err := all(
			expect.Success(resp),
			check(resp, key),
		); err != nil {
			return fmt.Errorf("isCC=%d: %w", isCC, err)
		}
		if err := expect.Equal(resp.String("address"), known); err != nil {
			return fmt.Errorf("addr mismatch: %w", err)
		}
	}
	return nil
}

func checkListTransactions(r *Run) error {
	return checkListing(r, r.client.ListTransactions, "txids", 1)
}

func checkListUnspent(r *Run) error {
	return checkListing(r, r.client.ListUnspent, "utxos", 0)
}

func checkSpend(r *Run) error {
	address, amount, err := r.spendable()
	if err != nil {
		return err
	}
	if err := r.logout(); err != nil {
		return err
	}

	for i, params := range [][2]interface{}{
		{false, false},
		{address, false},
		{address, amount}, // fine, but nobody is logged in
	} {
		resp, err := r.client.Spend(params[0], params[1])
		if err != nil {
			return err
		}
		if err := expect.Error(resp); err != nil {
			return fmt.Errorf("case %d: %w", i+1, err)
		}
	}

	if err := r.loginFunded(); err != nil {
		return err
	}
	resp, err := r.client.Spend(address, amount)
	if err != nil {
		return err
	}
	return all(
		expect.Success(resp),
		expect.Contains(resp, "tx"),
		expect.Contains(resp, "hex"),
	)
}

func checkBroadcast(r *Run) error {
	hex, err := r.prepareSpend()
	if err != nil {
		return err
	}

	resp, err := r.client.Broadcast(false)
	if err != nil {
		return err
	}
	if err := expect.Error(resp); err != nil {
		return err
	}

	resp, err = r.client.Broadcast("norealhexhere")
	if err != nil {
		return err
	}
	if err := expect.In(resp, "retcode", BROADCAST_FAILED...); err != nil {
		return err
	}

	resp, err = r.client.Broadcast(hex)
	if err != nil {
		return err
	}
	if err := expect.Success(resp); err != nil {
		return err
	}
	if err := expect.Equal(resp.Get("broadcast"), resp.Get("expected")); err != nil {
		return fmt.Errorf("broadcast: %w", err)
	}
	return nil
}

func checkMempool(r *Run) error {
	resp, err := r.client.Mempool()
	if err != nil {
		return err
	}
	// "txids" isn't always there, even on success
	return expect.Success(resp)
}

func checkSpentInfo(r *Run) error {
	chain := r.opts.Chain

	resp, err := r.client.SpentInfo(false, false)
	if err != nil {
		return err
	}
	if err := expect.Error(resp); err != nil {
		return err
	}

	resp, err = r.client.SpentInfo(chain.TxProofID, chain.SpentVout)
	if err != nil {
		return err
	}
	if err := expect.Success(resp); err != nil {
		return err
	}
	if err := expect.Equal(resp.Get("txid"), chain.TxProofID); err != nil {
		return fmt.Errorf("unexpected txid: %w", err)
	}
	if err := expect.Equal(resp.Get("vout"), chain.SpentVout); err != nil {
		return fmt.Errorf("unexpected vout: %w", err)
	}

	if h, ok := resp.Float("spentheight"); ok && int(h) != chain.TxSpentHeight {
		r.log.Warn().Int("got", int(h)).Int("fixture", chain.TxSpentHeight).
			Msg("spent height differs from the fixture")
	}
	return nil
}

func checkGetTransaction(r *Run) error {
	resp, err := r.client.GetTransaction()
	if err != nil {
		return err
	}
	return expect.Error(resp)
}

func checkAutoLogout(r *Run) error {
	address, amount, err := r.spendable()
	if err != nil {
		return err
	}
	if err := r.loginFunded(); err != nil {
		return err
	}

	// make sure the session works before we let it expire
	resp, err := r.client.Spend(address, amount)
	if err != nil {
		return err
	}
	if err := expect.Success(resp); err != nil {
		return fmt.Errorf("spend right after login: %w", err)
	}

	wait := r.opts.SessionExpiry + time.Second
	r.log.Info().Dur("wait", wait).Msg("waiting for the session to expire")
	time.Sleep(wait)

	resp, err = r.client.Spend(address, amount)
	if err != nil {
		return err
	}
	if err := expect.Error(resp); err != nil {
		return fmt.Errorf("spend after %s: %w", wait, err)
	}
	return nil
}

func checkStop(r *Run) error {
	if err := r.loginFunded(); err != nil {
		return err
	}

	// send everything back so the next run starts from the same utxo set
	balance, err := r.balance()
	if err != nil {
		return err
	}
	if amount := balance - r.opts.MaxFee; amount > 0 {
		resp, err := r.client.Spend(r.opts.Destination, amount)
		if err != nil {
			return err
		}
		if hex := resp.String("hex"); hex != "" {
			resp, err = r.client.Broadcast(hex)
			if err != nil {
				return err
			}
			r.log.Info().Float64("amount", amount).Interface("retcode", resp.Get("retcode")).
				Msg("resent funds")
		} else {
			r.log.Warn().Float64("amount", amount).Msg("couldn't resend funds")
		}
	}

	resp, err := r.client.Stop()
	if err != nil {
		return err
	}
	return expect.Success(resp)
}
