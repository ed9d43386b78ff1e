package common

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec"
	"github.com/btcsuite/btcutil"
)

// AddressFromWIF derives the P2PKH address a node should report after we log in
// with this secret.
func AddressFromWIF(wif string) (string, error) {
	decoded, err := btcutil.DecodeWIF(wif)
	if err != nil {
		return "", fmt.Errorf("error decoding wif: %w", err)
	}

	pkHash := btcutil.Hash160(decoded.SerializePubKey())
	addr, err := btcutil.NewAddressPubKeyHash(pkHash, &KomodoParams)
	if err != nil {
		return "", err
	}
	return addr.EncodeAddress(), nil
}

// ValidAddress tells if this is a base58 address for the komodo networks.
func ValidAddress(address string) bool {
	addr, err := btcutil.DecodeAddress(address, &KomodoParams)
	if err != nil {
		return false
	}
	return addr.IsForNet(&KomodoParams)
}

// NewKey generates a fresh compressed key, returning its wif, address and
// hex-encoded pubkey. The harness itself gets its keys from the node; this is
// for fake nodes and test fixtures.
func NewKey() (wif string, address string, pubkey string, err error) {
	sk, err := btcec.NewPrivateKey(btcec.S256())
	if err != nil {
		return "", "", "", err
	}

	w, err := btcutil.NewWIF(sk, &KomodoParams, true)
	if err != nil {
		return "", "", "", err
	}

	address, err = AddressFromWIF(w.String())
	if err != nil {
		return "", "", "", err
	}

	return w.String(), address, fmt.Sprintf("%x", w.SerializePubKey()), nil
}
