package native

import (
	"github.com/fracnft/fracnft/pkg/core/interop"
)

// Contracts is a set of registered native contracts.
type Contracts struct {
	NFT            *NFT
	ERC20          *ERC20
	Fractionalizer *Fractionalizer
	Contracts      []interop.Contract
}

var _ interop.Registry = (*Contracts)(nil)

// NewContracts returns new set of native contracts.
func NewContracts() *Contracts {
	cs := new(Contracts)

	nft := newNFT()
	cs.NFT = nft
	cs.Contracts = append(cs.Contracts, nft)

	erc20 := newERC20()
	cs.ERC20 = erc20
	cs.Contracts = append(cs.Contracts, erc20)

	frac := newFractionalizer()
	frac.NFT = nft
	frac.ERC20 = erc20
	cs.Fractionalizer = frac
	cs.Contracts = append(cs.Contracts, frac)
	return cs
}

// ByName returns native contract with the specified name.
func (cs *Contracts) ByName(name string) interop.Contract {
	for _, ctr := range cs.Contracts {
		if ctr.Metadata().Name == name {
			return ctr
		}
	}
	return nil
}
