package state_test

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/hqchain/hqchain/foundation/blockchain/accounts"
	"github.com/hqchain/hqchain/foundation/blockchain/consensus"
	"github.com/hqchain/hqchain/foundation/blockchain/database"
	"github.com/hqchain/hqchain/foundation/blockchain/genesis"
	"github.com/hqchain/hqchain/foundation/blockchain/peer"
	"github.com/hqchain/hqchain/foundation/blockchain/stake"
	"github.com/hqchain/hqchain/foundation/blockchain/state"
	"github.com/hqchain/hqchain/foundation/blockchain/storage/memory"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	minerECDSA = "8dc79feefd3b86e2f9991def0e5ccd9a5128e104682407b308594bc1032ac7f0"
	aliceECDSA = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
)

func ifErrFailNow(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Error(err)
		t.FailNow()
	}
}

func newState(t *testing.T, gen genesis.Genesis) *state.State {
	t.Helper()

	key, err := crypto.HexToECDSA(minerECDSA)
	ifErrFailNow(t, err)

	storage, err := memory.New()
	ifErrFailNow(t, err)

	st, err := state.New(state.Config{
		BeneficiaryID: database.PublicKeyToAccountID(key.PublicKey),
		Host:          "localhost:9080",
		Storage:       storage,
		Genesis:       gen,
		Stakes:        stake.NewWithSource(rand.NewPCG(1, 2)),
		KnownPeers:    peer.NewPeerSet(),
	})
	ifErrFailNow(t, err)

	return st
}

func testGenesis(maxSupply uint64) genesis.Genesis {
	gen := genesis.Default()
	gen.Difficulty = 1
	gen.MaxSupply = maxSupply

	return gen
}

func signedTx(t *testing.T, hexKey string, receiver database.AccountID, amount uint64) database.SignedTx {
	t.Helper()

	var key *ecdsa.PrivateKey
	var err error

	switch hexKey {
	case "":
		key, err = crypto.GenerateKey()
	default:
		key, err = crypto.HexToECDSA(hexKey)
	}
	ifErrFailNow(t, err)

	tx := database.NewTx(database.PublicKeyToAccountID(key.PublicKey), receiver, amount)

	signed, err := tx.Sign(key)
	ifErrFailNow(t, err)

	return signed
}

func mine(t *testing.T, st *state.State) database.Block {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	block, err := st.Mine(ctx)
	ifErrFailNow(t, err)

	return block
}

// =============================================================================

func Test_Genesis(t *testing.T) {
	st := newState(t, genesis.Default())

	listing, err := st.RetrieveChain()
	ifErrFailNow(t, err)

	if listing.Length != 1 || listing.TotalSupply != 0 {
		t.Fatalf("Should start with the genesis block only: length[%d] supply[%d]", listing.Length, listing.TotalSupply)
	}

	gen := listing.Chain[0]
	if gen.Index != 0 || gen.PrevBlockHash != database.GenesisBlock(genesis.Default()).PrevBlockHash || len(gen.Transactions) != 0 {
		t.Fatalf("Should get a well formed genesis block: %+v", gen)
	}

	if gen.Hash != database.GenesisBlock(genesis.Default()).Hash {
		t.Fatalf("Should get the deterministic genesis hash: %s", gen.Hash)
	}
}

func Test_MineSupplyCap(t *testing.T) {
	t.Log("Given the need to stop minting at the maximum supply.")
	{
		st := newState(t, testGenesis(100))
		ifErrFailNow(t, st.AddStake("staker", 10))

		t.Logf("\tTest 0:\tWhen mining with an empty pool.")
		{
			if _, err := st.Mine(context.Background()); !errors.Is(err, state.ErrNoTransactions) {
				t.Fatalf("\t%s\tTest 0:\tShould fail with no transactions: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould fail with no transactions.", success)
		}

		t.Logf("\tTest 1:\tWhen mining two blocks.")
		{
			ifErrFailNow(t, st.SubmitTransaction(signedTx(t, aliceECDSA, "bob", 10)))
			pow := mine(t, st)

			ifErrFailNow(t, st.SubmitTransaction(signedTx(t, aliceECDSA, "bob", 5)))
			pos := mine(t, st)

			if pow.Index != 1 || pow.Stakeholder != "" || pow.Hash[:1] != "0" {
				t.Fatalf("\t%s\tTest 1:\tShould seal block 1 by proof of work: %+v", failed, pow)
			}
			if pos.Index != 2 || pos.Stakeholder != "staker" || pos.BeneficiaryID != "staker" {
				t.Fatalf("\t%s\tTest 1:\tShould seal block 2 by proof of stake: %+v", failed, pos)
			}
			t.Logf("\t%s\tTest 1:\tShould alternate the consensus algorithm.", success)

			if supply := st.RetrieveTotalSupply(); supply != 100 {
				t.Fatalf("\t%s\tTest 1:\tShould have minted 100: %d", failed, supply)
			}
			t.Logf("\t%s\tTest 1:\tShould have minted 100.", success)

			var sum int64
			for _, info := range st.RetrieveAccounts() {
				sum += info.Balance
			}
			if sum != 100 {
				t.Fatalf("\t%s\tTest 1:\tShould have balances summing to the supply: %d", failed, sum)
			}
			t.Logf("\t%s\tTest 1:\tShould have balances summing to the supply.", success)

			if st.QueryMempoolLength() != 0 {
				t.Fatalf("\t%s\tTest 1:\tShould have emptied the mempool.", failed)
			}
		}

		t.Logf("\tTest 2:\tWhen mining past the maximum supply.")
		{
			ifErrFailNow(t, st.SubmitTransaction(signedTx(t, aliceECDSA, "bob", 1)))

			if _, err := st.Mine(context.Background()); !errors.Is(err, state.ErrSupplyCap) {
				t.Fatalf("\t%s\tTest 2:\tShould fail on the supply cap: %v", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould fail on the supply cap.", success)

			if st.QueryMempoolLength() != 1 || st.RetrieveLatestBlock().Index != 2 {
				t.Fatalf("\t%s\tTest 2:\tShould leave the chain and the pool untouched.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould leave the chain and the pool untouched.", success)
		}
	}
}

func Test_NoStakeholder(t *testing.T) {
	st := newState(t, testGenesis(1000))

	ifErrFailNow(t, st.SubmitTransaction(signedTx(t, "", "bob", 1)))
	mine(t, st)

	ifErrFailNow(t, st.SubmitTransaction(signedTx(t, "", "bob", 2)))

	if _, err := st.Mine(context.Background()); !errors.Is(err, consensus.ErrNoStakeholder) {
		t.Fatalf("Should fail to seal a proof of stake block: %v", err)
	}

	if st.QueryMempoolLength() != 1 || st.RetrieveTotalSupply() != 50 {
		t.Fatalf("Should leave the pool and the supply untouched.")
	}
}

func Test_SubmitRejects(t *testing.T) {
	st := newState(t, genesis.Default())

	tx := signedTx(t, aliceECDSA, "bob", 10)
	tx.Amount = 11

	if err := st.SubmitTransaction(tx); !errors.Is(err, database.ErrInvalidSignature) {
		t.Fatalf("Should reject a tampered transaction: %v", err)
	}

	if st.QueryMempoolLength() != 0 {
		t.Fatalf("Should leave the pool untouched.")
	}
}

func Test_BalanceOverflow(t *testing.T) {
	t.Log("Given the need to keep balances inside the int64 range.")
	{
		st := newState(t, testGenesis(1000))
		ifErrFailNow(t, st.AddStake("staker", 10))

		t.Logf("\tTest 0:\tWhen a block drains a sender twice by the largest amount.")
		{
			ifErrFailNow(t, st.SubmitTransaction(signedTx(t, aliceECDSA, "bob", math.MaxInt64)))
			ifErrFailNow(t, st.SubmitTransaction(signedTx(t, aliceECDSA, "carol", math.MaxInt64)))

			if _, err := st.Mine(context.Background()); !errors.Is(err, accounts.ErrBalanceOverflow) {
				t.Fatalf("\t%s\tTest 0:\tShould reject the block on overflow: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould reject the block on overflow.", success)

			if st.QueryMempoolLength() != 2 || st.RetrieveLatestBlock().Index != 0 || st.RetrieveTotalSupply() != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould leave the chain and the pool untouched.", failed)
			}
			if len(st.RetrieveAccounts()) != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould leave the balances untouched: %v", failed, st.RetrieveAccounts())
			}
			t.Logf("\t%s\tTest 0:\tShould leave the chain, the pool and the balances untouched.", success)
		}
	}

	t.Log("Given the need to keep balances inside the int64 range across blocks.")
	{
		st := newState(t, testGenesis(1000))
		ifErrFailNow(t, st.AddStake("staker", 10))

		t.Logf("\tTest 1:\tWhen a second block drains the same sender again.")
		{
			ifErrFailNow(t, st.SubmitTransaction(signedTx(t, aliceECDSA, "bob", math.MaxInt64)))
			mine(t, st)

			ifErrFailNow(t, st.SubmitTransaction(signedTx(t, aliceECDSA, "carol", math.MaxInt64)))
			if _, err := st.Mine(context.Background()); !errors.Is(err, accounts.ErrBalanceOverflow) {
				t.Fatalf("\t%s\tTest 1:\tShould reject the block on overflow: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould reject the block on overflow.", success)

			key, err := crypto.HexToECDSA(aliceECDSA)
			ifErrFailNow(t, err)

			info, err := st.QueryAccount(database.PublicKeyToAccountID(key.PublicKey))
			ifErrFailNow(t, err)

			if info.Balance != -math.MaxInt64 || st.QueryMempoolLength() != 1 || st.RetrieveLatestBlock().Index != 1 {
				t.Fatalf("\t%s\tTest 1:\tShould keep the first block only: balance %d", failed, info.Balance)
			}
			t.Logf("\t%s\tTest 1:\tShould keep the first block only.", success)
		}
	}
}

func Test_AcceptBlockLinkage(t *testing.T) {
	st := newState(t, testGenesis(1000))
	latest := st.RetrieveLatestBlock()

	tt := []struct {
		name  string
		block database.Block
	}{
		{"index", database.Block{Index: 2, PrevBlockHash: latest.Hash, BeneficiaryID: "miner"}},
		{"hash", database.Block{Index: 1, PrevBlockHash: "abc", BeneficiaryID: "miner"}},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			err := st.AcceptBlock(tst.block, tst.block.ComputeHash())
			if !errors.Is(err, database.ErrChainLinkage) {
				t.Fatalf("Should reject the block on linkage: %v", err)
			}

			if st.RetrieveLatestBlock().Hash != latest.Hash {
				t.Fatalf("Should leave the chain unmodified.")
			}
		}

		t.Run(tst.name, f)
	}

	draft := database.NewBlock(latest, "miner", nil)
	for draft.ComputeHash()[0] == '0' {
		draft.Nonce++
	}
	if err := st.AcceptBlock(draft, draft.ComputeHash()); !errors.Is(err, database.ErrInvalidProof) {
		t.Fatalf("Should reject an unsolved proof of work block: %v", err)
	}
}

func Test_ImportChain(t *testing.T) {
	t.Log("Given the need to import a chain from another node.")
	{
		src := newState(t, testGenesis(1000))
		ifErrFailNow(t, src.AddStake("staker", 1))

		ifErrFailNow(t, src.SubmitTransaction(signedTx(t, aliceECDSA, "bob", 10)))
		mine(t, src)
		ifErrFailNow(t, src.SubmitTransaction(signedTx(t, aliceECDSA, "carol", 3)))
		mine(t, src)

		listing, err := src.RetrieveChain()
		ifErrFailNow(t, err)

		t.Logf("\tTest 0:\tWhen importing a valid chain.")
		{
			dst := newState(t, testGenesis(1000))
			pending := listing.Chain[1].Transactions[0]
			ifErrFailNow(t, dst.SubmitTransaction(pending))

			ifErrFailNow(t, dst.ImportChain(listing.Chain))

			got, err := dst.RetrieveChain()
			ifErrFailNow(t, err)

			if got.Length != 3 || got.TotalSupply != 100 || got.Chain[2].Hash != listing.Chain[2].Hash {
				t.Fatalf("\t%s\tTest 0:\tShould take over the chain: %+v", failed, got)
			}
			t.Logf("\t%s\tTest 0:\tShould take over the chain.", success)

			if bob, err := dst.QueryAccount("bob"); err != nil || bob.Balance != 10 {
				t.Fatalf("\t%s\tTest 0:\tShould rebuild the balances: %v", failed, bob)
			}
			t.Logf("\t%s\tTest 0:\tShould rebuild the balances.", success)

			if dst.QueryMempoolLength() != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould drop imported transactions from the pool.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould drop imported transactions from the pool.", success)
		}

		t.Logf("\tTest 1:\tWhen importing a tampered chain.")
		{
			tampered := make([]database.BlockData, len(listing.Chain))
			copy(tampered, listing.Chain)

			trans := make([]database.SignedTx, len(tampered[2].Transactions))
			copy(trans, tampered[2].Transactions)
			trans[0].Amount = 30
			tampered[2].Transactions = trans

			dst := newState(t, testGenesis(1000))
			before := dst.RetrieveLatestBlock()

			if err := dst.ImportChain(tampered); err == nil {
				t.Fatalf("\t%s\tTest 1:\tShould reject the import.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould reject the import.", success)

			if dst.RetrieveLatestBlock().Hash != before.Hash || dst.RetrieveTotalSupply() != 0 {
				t.Fatalf("\t%s\tTest 1:\tShould leave the chain untouched.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould leave the chain untouched.", success)
		}

		t.Logf("\tTest 2:\tWhen importing a chain past the supply cap.")
		{
			dst := newState(t, testGenesis(50))
			if err := dst.ImportChain(listing.Chain); !errors.Is(err, state.ErrSupplyCap) {
				t.Fatalf("\t%s\tTest 2:\tShould reject the import on supply: %v", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould reject the import on supply.", success)
		}
	}
}
