package native_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/params"
	"github.com/fracnft/fracnft/pkg/core/native/nativenames"
	"github.com/fracnft/fracnft/pkg/neotest"
	"github.com/fracnft/fracnft/pkg/neotest/chain"
	"github.com/stretchr/testify/require"
)

const (
	tokenURI    = "www.foo.xyz"
	erc20Name   = "Woof coin"
	erc20Symbol = "Woof"
	erc20Supply = 100
)

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(params.Ether))
}

// nftFixture is a chain with the NFT contract deployed by the deployer and
// one token minted to the user.
type nftFixture struct {
	e        *neotest.Executor
	accounts []neotest.Signer
	deployer neotest.Signer
	user     neotest.Signer
	// nft is the NFT contract client signed by the deployer.
	nft   *neotest.ContractInvoker
	nftID *big.Int
}

func newNFTFixture(t *testing.T) *nftFixture {
	bc, accs := chain.NewSingle(t)
	e := neotest.NewExecutor(t, bc, accs...)
	deployer, user := accs[0], accs[1]

	addr := e.DeployContract(t, nativenames.TestNFT, deployer)
	nft := e.NewContractInvoker(t, nativenames.TestNFT, addr).WithSigners(deployer)

	var id *big.Int
	nft.InvokeAndCheck(t, func(t testing.TB, out []any) {
		require.Len(t, out, 1)
		id = out[0].(*big.Int)
	}, "mintNFT", user.Address(), tokenURI)

	return &nftFixture{
		e:        e,
		accounts: accs,
		deployer: deployer,
		user:     user,
		nft:      nft,
		nftID:    id,
	}
}

// fracFixture extends nftFixture with the fractionalizer deployed by the
// deployer and the user's token fractionalized.
type fracFixture struct {
	*nftFixture
	// frac is the fractionalizer client signed by the user.
	frac *neotest.ContractInvoker
	// erc20 is the fraction token client signed by the user.
	erc20 *neotest.ContractInvoker
	// fractionalizeTx is the hash of the fractionalization transaction.
	fractionalizeTx common.Hash
}

func newFracFixture(t *testing.T, buyoutPrice *big.Int) *fracFixture {
	f := newNFTFixture(t)
	e := f.e

	fracAddr := e.DeployContract(t, nativenames.FractionalizeNFT, f.deployer)
	frac := e.NewContractInvoker(t, nativenames.FractionalizeNFT, fracAddr).WithSigners(f.user)

	f.nft.WithSigners(f.user).Invoke(t, nil, "approve", fracAddr, f.nftID)

	var (
		erc20Addr common.Address
		check     = func(t testing.TB, out []any) {
			require.Len(t, out, 1)
			erc20Addr = out[0].(common.Address)
		}
		h common.Hash
	)
	if buyoutPrice == nil {
		h = frac.InvokeAndCheck(t, check, "fractionalizeNft",
			f.nft.Address, f.nftID, erc20Name, erc20Symbol, big.NewInt(erc20Supply))
	} else {
		h = frac.InvokeAndCheck(t, check, "fractionalizeNft0",
			f.nft.Address, f.nftID, erc20Name, erc20Symbol, big.NewInt(erc20Supply), buyoutPrice)
	}

	return &fracFixture{
		nftFixture:      f,
		frac:            frac,
		erc20:           e.NewContractInvoker(t, nativenames.ERC20Factory, erc20Addr).WithSigners(f.user),
		fractionalizeTx: h,
	}
}
