package conformance

import (
	"errors"
	"fmt"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/fiatjaf/nspvtest/common"
	"github.com/fiatjaf/nspvtest/expect"
)

// Setup steps. Scenarios build the state they need through these instead of
// relying on what an earlier scenario left behind.

// logout ends whatever session there is.
func (r *Run) logout() error {
	resp, err := r.client.Logout()
	if err != nil {
		return err
	}
	return expect.Success(resp)
}

type freshKey struct {
	wif     string
	address string
}

// newKey asks the node for a brand new keypair.
func (r *Run) newKey() (freshKey, error) {
	resp, err := r.client.GetNewAddress()
	if err != nil {
		return freshKey{}, err
	}
	for _, key := range []string{"wifprefix", "wif", "address", "pubkey"} {
		if err := expect.Contains(resp, key); err != nil {
			return freshKey{}, err
		}
	}
	return freshKey{wif: resp.String("wif"), address: resp.String("address")}, nil
}

// newSession logs in with a fresh key and returns the address the node
// reported for it.
func (r *Run) newSession() (string, error) {
	key, err := r.newKey()
	if err != nil {
		return "", err
	}
	if err := r.logout(); err != nil {
		return "", err
	}
	resp, err := r.client.Login(key.wif)
	if err != nil {
		return "", err
	}
	if err := expect.Success(resp); err != nil {
		return "", err
	}
	if err := expect.Equal(resp.String("address"), key.address); err != nil {
		return "", fmt.Errorf("addr mismatch: %w", err)
	}
	return key.address, nil
}

// loginFunded starts a session with the funded wallet.
func (r *Run) loginFunded() error {
	if err := r.logout(); err != nil {
		return err
	}
	resp, err := r.client.Login(r.opts.Wallet)
	if err != nil {
		return err
	}
	if err := expect.Success(resp); err != nil {
		return fmt.Errorf("login with funded wif: %w", err)
	}
	return nil
}

// balance is what listunspent reports for the current session.
func (r *Run) balance() (float64, error) {
	resp, err := r.client.ListUnspent()
	if err != nil {
		return 0, err
	}
	if resp.Err != nil {
		return 0, resp.Err
	}
	amount, _ := resp.Float("balance")
	return amount, nil
}

// waitForBalance polls the balance of the funded wallet until it is enough to
// spend from. The node might take a few seconds after login to learn it.
func (r *Run) waitForBalance() (float64, error) {
	policy := retrypolicy.Builder[float64]().
		HandleIf(func(amount float64, err error) bool {
			return err == nil && amount < r.opts.MinBalance
		}).
		WithMaxAttempts(r.opts.BalanceAttempts).
		WithDelay(r.opts.BalanceDelay).
		OnRetry(func(e failsafe.ExecutionEvent[float64]) {
			r.log.Info().Int("attempt", e.Attempts()).Float64("balance", e.LastResult()).
				Msg("waiting for possible confirmations")
		}).
		Build()

	amount, err := failsafe.Get(r.balance, policy)
	var exceeded retrypolicy.ExceededError
	if errors.As(err, &exceeded) {
		return 0, abort("not enough balance, please use another wif",
			fmt.Errorf("balance stayed below %v after %d attempts",
				r.opts.MinBalance, r.opts.BalanceAttempts))
	}
	if err != nil {
		return 0, abort("couldn't get the wallet balance", err)
	}
	return amount, nil
}

// prepareSpend logs in with the funded wallet and builds a transaction to the
// destination address, returning its hex.
func (r *Run) prepareSpend() (string, error) {
	if err := r.loginFunded(); err != nil {
		return "", err
	}
	resp, err := r.client.Spend(r.opts.Destination, r.opts.SpendAmount)
	if err != nil {
		return "", err
	}
	if err := expect.Success(resp); err != nil {
		return "", fmt.Errorf("spend: %w", err)
	}
	if err := expect.Contains(resp, "hex"); err != nil {
		return "", err
	}
	return resp.String("hex"), nil
}

// spendable is an address/amount pair we expect the node to accept.
func (r *Run) spendable() (string, float64, error) {
	if !common.ValidAddress(r.opts.Destination) {
		return "", 0, abort("invalid destination address", errors.New(r.opts.Destination))
	}
	return r.opts.Destination, r.opts.SpendAmount, nil
}
