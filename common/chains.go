package common

import (
	"fmt"
	"sort"
	"strings"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Chain is the static set of facts we know about one of the networks we can
// point the harness at. These are checked against what the node answers.
type Chain struct {
	Name string

	TxListAddress      string // an address with a known history
	MinChainHeight     int
	NotarizationHeight int
	HdrsProofLow       int
	HdrsProofHigh      int
	NumHdrsExpected    int    // numhdrs for [HdrsProofLow, HdrsProofHigh]
	TxProofID          string // a txid whose output SpentVout is known to be spent
	SpentVout          int
	TxSpentHeight      int
	Port               int
}

var CHAINS = map[string]Chain{
	"KMD": {
		Name:               "KMD",
		TxListAddress:      "RGShWG446Pv24CKzzxjA23obrzYwNbs1kA",
		MinChainHeight:     1468080,
		NotarizationHeight: 1468000,
		HdrsProofLow:       1468100,
		HdrsProofHigh:      1468200,
		NumHdrsExpected:    151,
		TxProofID:          "f7beb36a65bc5bcbc9c8f398345aab7948160493955eb4a1f05da08c4ac3784f",
		SpentVout:          1,
		TxSpentHeight:      1456212,
		Port:               7771,
	},
	"ILN": {
		Name:               "ILN",
		TxListAddress:      "RUp3xudmdTtxvaRnt3oq78FJBjotXy55uu",
		MinChainHeight:     3689,
		NotarizationHeight: 2000,
		HdrsProofLow:       2000,
		HdrsProofHigh:      2100,
		NumHdrsExpected:    113,
		TxProofID:          "67ffe0eaecd6081de04675c492a59090b573ee78955c4e8a85b8ac0be0e8e418",
		SpentVout:          1,
		TxSpentHeight:      2681,
		Port:               12986,
	},
	"HUSH": {
		Name:               "HUSH",
		TxListAddress:      "RCNp322uAXmNo37ipQAEjcGQgBXY9EW9yv",
		MinChainHeight:     69951,
		NotarizationHeight: 69900,
		HdrsProofLow:       66100,
		HdrsProofHigh:      66200,
		NumHdrsExpected:    123,
		TxProofID:          "661bae364443948a009fa7f706c3c8b7d3fa6b0b27eca185b075abbe85bbdedc",
		SpentVout:          1,
		TxSpentHeight:      2681,
		Port:               18031,
	},
	"RICK": {
		Name:               "RICK",
		TxListAddress:      "RFNGdjCCApFfqUY8yWrvS9NG8QLrKFkM7K",
		MinChainHeight:     495000,
		NotarizationHeight: 435000,
		HdrsProofLow:       495337,
		HdrsProofHigh:      495390,
		NumHdrsExpected:    77,
		TxProofID:          "ac891ff08f952398ff544e12960dad254b1e628ce915b8185386151bd7782259",
		SpentVout:          1,
		TxSpentHeight:      495327,
		Port:               25435,
	},
}

// KomodoParams are the address and key prefixes shared by KMD and every
// assetchain above.
var KomodoParams = chaincfg.Params{
	Name:             "komodo",
	PubKeyHashAddrID: 60,  // 'R'
	ScriptHashAddrID: 85,  // 'b'
	PrivateKeyID:     188, // 'U' when compressed
}

func LookupChain(name string) (Chain, error) {
	chain, ok := CHAINS[strings.ToUpper(name)]
	if !ok {
		return Chain{}, fmt.Errorf("unknown chain %q, known chains are %s",
			name, strings.Join(ChainNames(), ", "))
	}
	return chain, nil
}

func ChainNames() []string {
	names := make([]string, 0, len(CHAINS))
	for name := range CHAINS {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate catches typos in the table before they turn into confusing
// assertion failures against a live node.
func (c Chain) Validate() error {
	if _, err := chainhash.NewHashFromStr(c.TxProofID); err != nil {
		return fmt.Errorf("%s: bad tx proof id: %w", c.Name, err)
	}
	if !ValidAddress(c.TxListAddress) {
		return fmt.Errorf("%s: bad listing address %q", c.Name, c.TxListAddress)
	}
	if c.HdrsProofHigh < c.HdrsProofLow {
		return fmt.Errorf("%s: header proof range %d-%d is inverted",
			c.Name, c.HdrsProofLow, c.HdrsProofHigh)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%s: bad port %d", c.Name, c.Port)
	}
	return nil
}
