// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"io/fs"
	"os"
	"time"

	"github.com/cockroachdb/errors"
)

// maxDifficulty is the number of hex characters in a sha256 hash.
const maxDifficulty = 64

// Genesis represents the genesis file.
type Genesis struct {
	Date         time.Time `json:"date"`          // Timestamp recorded in the genesis block.
	Difficulty   uint16    `json:"difficulty"`    // Number of leading 0's a POW block hash needs.
	MiningReward uint64    `json:"mining_reward"` // Coins minted for every accepted block.
	MaxSupply    uint64    `json:"max_supply"`    // Upper bound for the total minted supply.
}

// Default returns the genesis settings used when no genesis file exists.
func Default() Genesis {
	return Genesis{
		Date:         time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		Difficulty:   2,
		MiningReward: 50,
		MaxSupply:    21_000_000,
	}
}

// =============================================================================

// Load opens and consumes the genesis file. Fields missing from the file
// keep their default values. An empty path or a missing file returns the
// defaults.
func Load(path string) (Genesis, error) {
	genesis := Default()
	if path == "" {
		return genesis, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return genesis, nil
		}
		return Genesis{}, errors.Wrapf(err, "reading genesis file %s", path)
	}

	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, errors.Wrapf(err, "decoding genesis file %s", path)
	}

	if err := genesis.Validate(); err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}

// Validate checks the settings can produce a working chain.
func (g Genesis) Validate() error {
	if g.Difficulty > maxDifficulty {
		return errors.Newf("difficulty %d exceeds %d", g.Difficulty, maxDifficulty)
	}

	if g.MiningReward == 0 {
		return errors.New("mining reward must be greater than zero")
	}

	if g.MaxSupply < g.MiningReward {
		return errors.Newf("max supply %d is less than the mining reward %d", g.MaxSupply, g.MiningReward)
	}

	return nil
}
