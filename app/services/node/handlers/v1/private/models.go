package private

import (
	"github.com/hqchain/hqchain/business/sys/validate"
)

// nodeAddress is posted by a node registering with this node, or by an
// operator asking this node to join an existing node.
type nodeAddress struct {
	NodeAddress string `json:"node_address" validate:"required"`
}

// Validate checks the data in the model is considered clean.
func (na nodeAddress) Validate() error {
	return validate.Check(na)
}

type synced struct {
	Length      int    `json:"length"`
	TotalSupply uint64 `json:"total_supply"`
}
