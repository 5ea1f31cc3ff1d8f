package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/hqchain/hqchain/app/services/node/handlers"
	"github.com/hqchain/hqchain/business/web/errs"
	"github.com/hqchain/hqchain/foundation/blockchain/database"
	"github.com/hqchain/hqchain/foundation/blockchain/genesis"
	"github.com/hqchain/hqchain/foundation/blockchain/peer"
	"github.com/hqchain/hqchain/foundation/blockchain/stake"
	"github.com/hqchain/hqchain/foundation/blockchain/state"
	"github.com/hqchain/hqchain/foundation/blockchain/storage/memory"
	"github.com/hqchain/hqchain/foundation/events"
	"github.com/hqchain/hqchain/foundation/nameservice"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const aliceECDSA = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"

// node bundles the muxes of a single node under test.
type node struct {
	state   *state.State
	public  http.Handler
	private http.Handler
}

func newNode(t *testing.T, host string, maxSupply uint64) node {
	t.Helper()

	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("Should be able to generate a miner key: %s", err)
	}

	storage, err := memory.New()
	if err != nil {
		t.Fatalf("Should be able to construct storage: %s", err)
	}

	gen := genesis.Default()
	gen.Difficulty = 1
	gen.MaxSupply = maxSupply

	st, err := state.New(state.Config{
		BeneficiaryID: database.PublicKeyToAccountID(key.PublicKey),
		Host:          host,
		Storage:       storage,
		Genesis:       gen,
		Stakes:        stake.NewWithSource(rand.NewPCG(1, 2)),
	})
	if err != nil {
		t.Fatalf("Should be able to construct the state: %s", err)
	}
	t.Cleanup(func() { st.Shutdown() })

	ns, err := nameservice.New(t.TempDir())
	if err != nil {
		t.Fatalf("Should be able to construct the name service: %s", err)
	}

	cfg := handlers.MuxConfig{
		Shutdown: make(chan os.Signal, 1),
		Log:      zap.NewNop().Sugar(),
		State:    st,
		NS:       ns,
		Evts:     events.New(),
	}

	return node{
		state:   st,
		public:  handlers.PublicMux(cfg),
		private: handlers.PrivateMux(cfg),
	}
}

func call(t *testing.T, h http.Handler, method string, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Should be able to encode the body: %s", err)
		}
	}

	r := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	return w
}

func signedTx(t *testing.T, amount uint64) database.SignedTx {
	t.Helper()

	key, err := crypto.HexToECDSA(aliceECDSA)
	if err != nil {
		t.Fatalf("Should be able to load the key: %s", err)
	}

	tx, err := database.NewTx(database.PublicKeyToAccountID(key.PublicKey), "bob", amount).Sign(key)
	if err != nil {
		t.Fatalf("Should be able to sign: %s", err)
	}

	return tx
}

// =============================================================================

func TestSubmitTransaction(t *testing.T) {
	n := newNode(t, "localhost:9080", 1000)

	valid := signedTx(t, 10)

	tampered := valid
	tampered.Amount = 11

	tt := []struct {
		name       string
		body       any
		statusCode int
	}{
		{"valid", valid, http.StatusOK},
		{"tampered", tampered, http.StatusBadRequest},
		{"missing signature", map[string]any{"sender": valid.Sender, "receiver": "bob", "amount": 1, "sender_public_key": valid.SenderPublicKey}, http.StatusBadRequest},
		{"missing amount", map[string]any{"sender": valid.Sender, "receiver": "bob", "sender_public_key": valid.SenderPublicKey, "signature": valid.Signature}, http.StatusBadRequest},
		{"bad json", "{", http.StatusBadRequest},
	}

	t.Log("Given the need to validate submitted transactions.")
	{
		for testID, test := range tt {
			tf := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling a %s transaction.", testID, test.name)
				{
					w := call(t, n.public, http.MethodPost, "/v1/tx/submit", test.body)
					if w.Code != test.statusCode {
						t.Fatalf("\t%s\tTest %d:\tShould receive a %d status code : %d : %s", failed, testID, test.statusCode, w.Code, w.Body.String())
					}
					t.Logf("\t%s\tTest %d:\tShould receive a %d status code.", success, testID, test.statusCode)
				}
			}

			t.Run(test.name, tf)
		}

		if n.state.QueryMempoolLength() != 1 {
			t.Fatalf("\t%s\tShould only pool the valid transaction : %d", failed, n.state.QueryMempoolLength())
		}
		t.Logf("\t%s\tShould only pool the valid transaction.", success)
	}
}

func TestMine(t *testing.T) {
	n := newNode(t, "localhost:9080", 100)

	t.Log("Given the need to mine blocks over http.")
	{
		w := call(t, n.public, http.MethodGet, "/v1/mine", nil)
		if w.Code != http.StatusNotAcceptable {
			t.Fatalf("\t%s\tShould refuse to mine an empty pool : %d", failed, w.Code)
		}
		t.Logf("\t%s\tShould refuse to mine an empty pool.", success)

		call(t, n.public, http.MethodPost, "/v1/tx/submit", signedTx(t, 1))

		w = call(t, n.public, http.MethodGet, "/v1/mine", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("\t%s\tShould mine the first block : %d : %s", failed, w.Code, w.Body.String())
		}

		var resp struct {
			Index  uint64 `json:"index"`
			Status string `json:"status"`
		}
		if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
			t.Fatalf("\t%s\tShould decode the response : %s", failed, err)
		}
		if resp.Index != 1 || resp.Status != "Block #1 is mined." {
			t.Fatalf("\t%s\tShould report block 1 : %+v", failed, resp)
		}
		t.Logf("\t%s\tShould mine the first block.", success)

		// Block 2 is a proof of stake block.
		call(t, n.public, http.MethodPost, "/v1/tx/submit", signedTx(t, 2))

		w = call(t, n.public, http.MethodGet, "/v1/mine", nil)
		if w.Code != http.StatusNotAcceptable {
			t.Fatalf("\t%s\tShould refuse to mine without stakeholders : %d", failed, w.Code)
		}
		t.Logf("\t%s\tShould refuse to mine without stakeholders.", success)

		w = call(t, n.public, http.MethodPost, "/v1/stake/add", map[string]any{"stakeholder": "carol", "amount": 10})
		if w.Code != http.StatusOK {
			t.Fatalf("\t%s\tShould add a stake : %d", failed, w.Code)
		}

		w = call(t, n.public, http.MethodGet, "/v1/mine", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("\t%s\tShould mine the stake block : %d : %s", failed, w.Code, w.Body.String())
		}
		t.Logf("\t%s\tShould mine the stake block.", success)

		call(t, n.public, http.MethodPost, "/v1/tx/submit", signedTx(t, 3))

		w = call(t, n.public, http.MethodGet, "/v1/mine", nil)
		if w.Code != http.StatusNotAcceptable {
			t.Fatalf("\t%s\tShould refuse to mine past the supply cap : %d", failed, w.Code)
		}
		t.Logf("\t%s\tShould refuse to mine past the supply cap.", success)

		w = call(t, n.public, http.MethodGet, "/v1/chain", nil)

		var listing state.Listing
		if err := json.NewDecoder(w.Body).Decode(&listing); err != nil {
			t.Fatalf("\t%s\tShould decode the chain : %s", failed, err)
		}
		if listing.Length != 3 || listing.TotalSupply != 100 {
			t.Fatalf("\t%s\tShould list 3 blocks and a supply of 100 : %d %d", failed, listing.Length, listing.TotalSupply)
		}
		if sh := listing.Chain[2].Stakeholder; sh == nil || *sh != "carol" {
			t.Fatalf("\t%s\tShould record the stakeholder.", failed)
		}
		t.Logf("\t%s\tShould list the chain.", success)
	}
}

func TestStakes(t *testing.T) {
	n := newNode(t, "localhost:9080", 1000)

	t.Log("Given the need to register stakes over http.")
	{
		w := call(t, n.public, http.MethodPost, "/v1/stake/add", map[string]any{"stakeholder": "carol"})
		if w.Code != http.StatusBadRequest {
			t.Fatalf("\t%s\tShould reject a stake without an amount : %d", failed, w.Code)
		}

		var er errs.Response
		if err := json.NewDecoder(w.Body).Decode(&er); err != nil {
			t.Fatalf("\t%s\tShould decode the error : %s", failed, err)
		}
		if _, exists := er.Fields["amount"]; !exists {
			t.Fatalf("\t%s\tShould name the missing field : %+v", failed, er)
		}
		t.Logf("\t%s\tShould reject a stake without an amount.", success)

		for _, amount := range []uint64{5, 7} {
			w := call(t, n.public, http.MethodPost, "/v1/stake/add", map[string]any{"stakeholder": "carol", "amount": amount})
			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tShould add a stake : %d", failed, w.Code)
			}
		}

		w = call(t, n.public, http.MethodGet, "/v1/stake/list", nil)

		var stakes []struct {
			Stakeholder string `json:"stakeholder"`
			Amount      uint64 `json:"amount"`
		}
		if err := json.NewDecoder(w.Body).Decode(&stakes); err != nil {
			t.Fatalf("\t%s\tShould decode the stakes : %s", failed, err)
		}
		if len(stakes) != 1 || stakes[0].Amount != 12 {
			t.Fatalf("\t%s\tShould accumulate the stake : %+v", failed, stakes)
		}
		t.Logf("\t%s\tShould accumulate the stake.", success)
	}
}

func TestSync(t *testing.T) {
	t.Log("Given the need for a node to join an existing node.")
	{
		a := newNode(t, "localhost:9080", 1000)

		call(t, a.public, http.MethodPost, "/v1/tx/submit", signedTx(t, 1))
		if w := call(t, a.public, http.MethodGet, "/v1/mine", nil); w.Code != http.StatusOK {
			t.Fatalf("\t%s\tShould mine on the existing node : %d", failed, w.Code)
		}

		srv := httptest.NewServer(a.private)
		defer srv.Close()

		host := strings.TrimPrefix(srv.URL, "http://")
		b := newNode(t, "localhost:9180", 1000)

		w := call(t, b.private, http.MethodPost, "/v1/node/sync", map[string]string{"node_address": host})
		if w.Code != http.StatusOK {
			t.Fatalf("\t%s\tShould sync from the existing node : %d : %s", failed, w.Code, w.Body.String())
		}
		t.Logf("\t%s\tShould sync from the existing node.", success)

		if b.state.RetrieveLatestBlock().Hash != a.state.RetrieveLatestBlock().Hash {
			t.Fatalf("\t%s\tShould hold the same chain.", failed)
		}
		if b.state.RetrieveTotalSupply() != a.state.RetrieveTotalSupply() {
			t.Fatalf("\t%s\tShould hold the same supply.", failed)
		}
		t.Logf("\t%s\tShould hold the same chain.", success)

		w = call(t, a.private, http.MethodGet, "/v1/node/peers", nil)

		var peers []string
		if err := json.NewDecoder(w.Body).Decode(&peers); err != nil {
			t.Fatalf("\t%s\tShould decode the peers : %s", failed, err)
		}
		if len(peers) != 1 || peers[0] != "localhost:9180" {
			t.Fatalf("\t%s\tShould record the new peer : %v", failed, peers)
		}
		t.Logf("\t%s\tShould record the new peer.", success)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		w = call(t, b.private, http.MethodPost, "/v1/node/sync", map[string]string{"node_address": "127.0.0.1:1"})
		if w.Code != http.StatusNotAcceptable {
			t.Fatalf("\t%s\tShould refuse an unreachable node : %d", failed, w.Code)
		}
		t.Logf("\t%s\tShould refuse an unreachable node.", success)

		if _, err := b.state.NetRequestPeerStatus(ctx, peer.New(host)); err != nil {
			t.Fatalf("\t%s\tShould query the status of the peer : %s", failed, err)
		}
		t.Logf("\t%s\tShould query the status of the peer.", success)
	}
}

func TestCors(t *testing.T) {
	n := newNode(t, "localhost:9080", 1000)

	ns, err := nameservice.New(t.TempDir())
	if err != nil {
		t.Fatalf("Should be able to construct the name service: %s", err)
	}

	const explorer = "https://explorer.hqchain.dev"

	public := handlers.PublicMux(handlers.MuxConfig{
		Shutdown: make(chan os.Signal, 1),
		Log:      zap.NewNop().Sugar(),
		State:    n.state,
		NS:       ns,
		Evts:     events.New(),
		Origins:  []string{explorer},
	})

	tt := []struct {
		name       string
		method     string
		origin     string
		statusCode int
		allow      string
	}{
		{"preflight from explorer", http.MethodOptions, explorer, http.StatusNoContent, explorer},
		{"preflight from stranger", http.MethodOptions, "https://evil.example", http.StatusNoContent, ""},
		{"chain from explorer", http.MethodGet, explorer, http.StatusOK, explorer},
	}

	t.Log("Given the need to serve browsers from the configured origins.")
	{
		for testID, test := range tt {
			tf := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling a %s.", testID, test.name)
				{
					r := httptest.NewRequest(test.method, "/v1/chain", nil)
					r.Header.Set("Origin", test.origin)
					w := httptest.NewRecorder()
					public.ServeHTTP(w, r)

					if w.Code != test.statusCode {
						t.Fatalf("\t%s\tTest %d:\tShould receive a %d status code : %d", failed, testID, test.statusCode, w.Code)
					}
					t.Logf("\t%s\tTest %d:\tShould receive a %d status code.", success, testID, test.statusCode)

					if got := w.Header().Get("Access-Control-Allow-Origin"); got != test.allow {
						t.Fatalf("\t%s\tTest %d:\tShould allow origin %q : %q", failed, testID, test.allow, got)
					}
					t.Logf("\t%s\tTest %d:\tShould allow origin %q.", success, testID, test.allow)

					if got := w.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST, OPTIONS" {
						t.Fatalf("\t%s\tTest %d:\tShould only allow the node methods : %q", failed, testID, got)
					}
					t.Logf("\t%s\tTest %d:\tShould only allow the node methods.", success, testID)
				}
			}

			t.Run(test.name, tf)
		}
	}
}
