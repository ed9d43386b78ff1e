package conformance

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/fiatjaf/nspvtest/common"
)

type reply map[string]interface{}

func failure(kind common.ErrorKind) reply {
	return reply{"error": kind.Message()}
}

type fakeSession struct {
	address string
	pubkey  string
	expires time.Time
}

// fakeNode behaves the way an nspv node does, closely enough to run every
// scenario against it.
type fakeNode struct {
	mu sync.Mutex

	chain    common.Chain
	lifetime time.Duration

	fundedWIF     string
	fundedAddress string
	balance       float64
	// listunspent calls before the balance shows up
	balanceAfter int

	session     *fakeSession
	lastAddress string
	spends      map[string]string // hex: txid
	stopped     bool

	methods []string
	ids     []uint64

	// knobs for misbehaving
	overrides    map[string]string        // method: raw reply
	tamper       map[string]func(r reply) // edits successful replies only
	ignoreLogout bool
	// what spend says without a session, wif expired if unset
	loggedOutKind common.ErrorKind
	neverExpire   bool
}

func newFakeNode(chain common.Chain, lifetime time.Duration) *fakeNode {
	wif, address, _, err := common.NewKey()
	if err != nil {
		panic(err)
	}
	return &fakeNode{
		chain:         chain,
		lifetime:      lifetime,
		fundedWIF:     wif,
		fundedAddress: address,
		balance:       5,
		spends:        make(map[string]string),
		overrides:     make(map[string]string),
		tamper:        make(map[string]func(r reply)),
	}
}

func (n *fakeNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req common.RPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.JSONRPC != "2.0" {
		w.WriteHeader(400)
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	n.methods = append(n.methods, req.Method)
	n.ids = append(n.ids, req.ID)

	w.Header().Set("Content-Type", "application/json")
	if raw, ok := n.overrides[req.Method]; ok {
		w.Write([]byte(raw))
		return
	}
	resp := n.handle(req.Method, req.Params)
	if r, ok := resp.(reply); ok && r["result"] == "success" {
		if edit, ok := n.tamper[req.Method]; ok {
			edit(r)
		}
	}
	json.NewEncoder(w).Encode(resp)
}

func param(params []interface{}, i int) interface{} {
	if i < len(params) {
		return params[i]
	}
	return nil
}

func str(v interface{}) string {
	s, _ := v.(string)
	return s
}

func heightParam(v interface{}) (int, bool) {
	switch h := v.(type) {
	case string:
		n, err := strconv.Atoi(h)
		return n, err == nil && n > 0
	case float64:
		return int(h), h > 0
	}
	return 0, false
}

func truthyParam(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != "" && t != "0"
	}
	return false
}

func (n *fakeNode) active() *fakeSession {
	if n.session == nil {
		return nil
	}
	if !n.neverExpire && time.Now().After(n.session.expires) {
		n.session = nil
		return nil
	}
	return n.session
}

func (n *fakeNode) handle(method string, params []interface{}) interface{} {
	switch method {
	case "help":
		return reply{"result": "success", "methods": []string{
			"help", "getpeerinfo", "getinfo", "getnewaddress", "login", "logout",
			"listtransactions", "listunspent", "spend", "broadcast", "hdrsproof",
			"notarizations", "spentinfo", "mempool", "gettransaction", "stop",
		}}

	case "getpeerinfo":
		return []reply{{"nodeid": 0, "ipaddress": "127.0.0.1:12985", "port": 12985}}

	case "getinfo":
		height := n.chain.MinChainHeight + 11
		return reply{
			"result":       "success",
			"height":       height,
			"notarization": reply{"notarized_height": height - 5},
			"header":       reply{"height": height},
		}

	case "getnewaddress":
		wif, address, pubkey, err := common.NewKey()
		if err != nil {
			return failure(common.ERROR_GENERIC)
		}
		return reply{"result": "success", "wifprefix": 188, "wif": wif,
			"address": address, "pubkey": pubkey}

	case "login":
		wif := str(param(params, 0))
		address, err := common.AddressFromWIF(wif)
		if err != nil {
			return failure(common.ERROR_GENERIC)
		}
		n.session = &fakeSession{address: address, expires: time.Now().Add(n.lifetime)}
		n.lastAddress = address
		return reply{
			"result":  "success",
			"status":  fmt.Sprintf("wif will expire in %d seconds", int(n.lifetime.Seconds())),
			"address": address,
		}

	case "logout":
		if !n.ignoreLogout {
			n.session = nil
		}
		return reply{"result": "success"}

	case "listtransactions", "listunspent":
		return n.listing(method, params)

	case "spend":
		address := str(param(params, 0))
		amount, _ := param(params, 1).(float64)
		if !common.ValidAddress(address) || amount <= 0 {
			return failure(common.ERROR_INVALID_ADDRESS_OR_AMOUNT)
		}
		if n.active() == nil {
			if n.loggedOutKind != common.ERROR_UNKNOWN {
				return failure(n.loggedOutKind)
			}
			return failure(common.ERROR_WIF_EXPIRED)
		}
		if n.session.address != n.fundedAddress || amount > n.balance {
			return failure(common.ERROR_NOT_ENOUGH_FUNDS)
		}
		sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%v:%d", address, amount, len(n.spends))))
		txid := hex.EncodeToString(sum[:])
		rawtx := "0400008085202f8901" + txid
		n.spends[rawtx] = txid
		return reply{"result": "success", "tx": reply{"txid": txid}, "hex": rawtx}

	case "broadcast":
		rawtx := str(param(params, 0))
		if rawtx == "" {
			return failure(common.ERROR_NO_HEX)
		}
		if _, err := hex.DecodeString(rawtx); err != nil {
			return reply{"result": "failure", "retcode": -1}
		}
		txid, ok := n.spends[rawtx]
		if !ok {
			return reply{"result": "failure", "retcode": -2}
		}
		return reply{"result": "success", "expected": txid, "broadcast": txid, "retcode": 1}

	case "hdrsproof":
		prev, ok1 := heightParam(param(params, 0))
		next, ok2 := heightParam(param(params, 1))
		if !ok1 || !ok2 {
			return failure(common.ERROR_NO_HEIGHT)
		}
		if next < prev {
			return failure(common.ERROR_INVALID_HEIGHT_RANGE)
		}
		numhdrs := next - prev + 1
		if prev == n.chain.HdrsProofLow && next == n.chain.HdrsProofHigh {
			numhdrs = n.chain.NumHdrsExpected
		}
		return reply{"result": "success", "prevht": prev, "nextht": next,
			"numhdrs": numhdrs, "headers": []reply{{"height": prev}}}

	case "notarizations":
		height, ok := heightParam(param(params, 0))
		if !ok {
			return failure(common.ERROR_NO_HEIGHT)
		}
		return reply{"result": "success",
			"prev": reply{"notarized_height": height - 10},
			"next": reply{"notarized_height": height + 10}}

	case "spentinfo":
		txid := str(param(params, 0))
		vout, ok := param(params, 1).(float64)
		if txid == "" || !ok {
			return failure(common.ERROR_GENERIC)
		}
		return reply{"result": "success", "txid": txid, "vout": vout,
			"spentheight": n.chain.TxSpentHeight}

	case "mempool":
		return reply{"result": "success", "isCC": 0}

	case "gettransaction":
		return failure(common.ERROR_NOT_IMPLEMENTED)

	case "stop":
		n.stopped = true
		return reply{"result": "success"}
	}

	return failure(common.ERROR_INVALID_METHOD)
}

func (n *fakeNode) listing(method string, params []interface{}) interface{} {
	address := str(param(params, 0))
	isCC := truthyParam(param(params, 1))

	if address == "" {
		if s := n.active(); s != nil {
			address = s.address
		}
	}

	resp := reply{"result": "success", "isCC": isCC}
	if address == "" {
		// like nspv, it keeps the address of the last session around
		resp["address"] = n.lastAddress
		return resp
	}
	resp["address"] = address
	if isCC {
		return resp
	}

	var value float64
	switch address {
	case n.fundedAddress:
		if method == "listunspent" && n.balanceAfter > 0 {
			n.balanceAfter--
		} else {
			value = n.balance
		}
	case n.chain.TxListAddress:
		value = 1.5
	}

	if method == "listunspent" {
		resp["balance"] = value
		var utxos []reply
		if value > 0 {
			utxos = append(utxos, reply{"txid": n.chain.TxProofID, "vout": 0, "value": value})
		}
		resp["utxos"] = utxos
	} else {
		var txids []reply
		if value > 0 {
			txids = append(txids, reply{"txid": n.chain.TxProofID, "value": value})
		}
		resp["txids"] = txids
	}
	return resp
}
