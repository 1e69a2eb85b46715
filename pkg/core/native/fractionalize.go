package native

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/fracnft/fracnft/pkg/core/interop"
	"github.com/fracnft/fracnft/pkg/core/native/nativenames"
	"github.com/holiman/uint256"
)

// ListingState is the lifecycle state of a fractionalized NFT.
type ListingState uint8

// Listing states.
const (
	Fractionalized ListingState = 0
	Redeemed       ListingState = 1
	BoughtOut      ListingState = 2
)

// String implements the fmt.Stringer interface.
func (s ListingState) String() string {
	switch s {
	case Fractionalized:
		return "Fractionalized"
	case Redeemed:
		return "Redeemed"
	case BoughtOut:
		return "BoughtOut"
	default:
		return fmt.Sprintf("ListingState(%d)", uint8(s))
	}
}

// FracNFT is a listing kept by the fractionalizer for every locked NFT.
type FracNFT struct {
	FracNFTID     *big.Int
	OriginalOwner common.Address
	NFTTokenID    *big.Int
	ERC721Address common.Address
	ERC20Address  common.Address
	ERC20Name     string
	ERC20Symbol   string
	ERC20Supply   *big.Int
	BuyoutPrice   *big.Int
	State         ListingState
}

// Fractionalizer locks ERC-721 tokens and issues ERC-20 fractions against
// them. The fractions can later be used to redeem the NFT or to claim a
// share of its buyout price.
type Fractionalizer struct {
	interop.ContractMD
	NFT   *NFT
	ERC20 *ERC20
}

const (
	fracCountKey  = 0x01
	prefixListing = 0x02
	// prefixPayout stores the part of the buyout price not yet claimed.
	prefixPayout = 0x03
)

var _ interop.Contract = (*Fractionalizer)(nil)

func newFractionalizer() *Fractionalizer {
	f := &Fractionalizer{ContractMD: *interop.NewContractMD(nativenames.FractionalizeNFT, fractionalizeABI)}
	f.Receive = f.receive
	f.Fallback = f.fallback
	f.AddMethod("fractionalizeNft", f.fractionalizeNft)
	f.AddMethod("fractionalizeNft0", f.fractionalizeNft)
	f.AddMethod("getFracNftCount", f.getFracNftCount)
	f.AddMethod("fracNFTs", f.fracNFTs)
	f.AddMethod("buyout", f.buyout)
	f.AddMethod("redeem", f.redeem)
	f.AddMethod("claim", f.claim)
	f.AddMethod("onERC721Received", f.onERC721Received)
	return f
}

// Metadata implements the interop.Contract interface.
func (f *Fractionalizer) Metadata() *interop.ContractMD {
	return &f.ContractMD
}

func (f *Fractionalizer) receive(ic *interop.Context, _ []any) []any {
	ic.Emit(&f.ContractMD, "Received", ic.Caller(), ic.Value(), []byte{})
	return nil
}

func (f *Fractionalizer) fallback(ic *interop.Context, args []any) []any {
	ic.Emit(&f.ContractMD, "Received", ic.Caller(), ic.Value(), args[0].([]byte))
	return nil
}

func (f *Fractionalizer) onERC721Received(_ *interop.Context, _ []any) []any {
	return []any{ERC721Received}
}

func (f *Fractionalizer) getCount(ic *interop.Context) *uint256.Int {
	return ic.GetUint256([]byte{fracCountKey})
}

func (f *Fractionalizer) getFracNftCount(ic *interop.Context, _ []any) []any {
	return []any{f.getCount(ic).ToBig()}
}

func (f *Fractionalizer) getListing(ic *interop.Context, id *uint256.Int) *FracNFT {
	if !id.Lt(f.getCount(ic)) {
		panic(fmt.Sprintf("invalid fracNFT id %s", id.Dec()))
	}
	l := new(FracNFT)
	if err := rlp.DecodeBytes(ic.GetStorage(makeIDKey(prefixListing, id)), l); err != nil {
		panic(fmt.Errorf("corrupted fracNFT %s: %w", id.Dec(), err))
	}
	return l
}

func (f *Fractionalizer) putListing(ic *interop.Context, l *FracNFT) {
	data, err := rlp.EncodeToBytes(l)
	if err != nil {
		panic(err)
	}
	ic.PutStorage(makeIDKey(prefixListing, toUint256(l.FracNFTID)), data)
}

func (f *Fractionalizer) fracNFTs(ic *interop.Context, args []any) []any {
	l := f.getListing(ic, toUint256(toBigInt(args[0])))
	return []any{l.FracNFTID, l.OriginalOwner, l.NFTTokenID, l.ERC721Address, l.ERC20Address,
		l.ERC20Name, l.ERC20Symbol, l.ERC20Supply, l.BuyoutPrice, uint8(l.State)}
}

func (f *Fractionalizer) fractionalizeNft(ic *interop.Context, args []any) []any {
	var (
		nft    = toAddress(args[0])
		nftID  = toBigInt(args[1])
		name   = toString(args[2])
		symbol = toString(args[3])
		supply = toBigInt(args[4])
		price  = new(big.Int)
		owner  = ic.Caller()
		self   = ic.Self()
	)
	if len(args) > 5 {
		price = toBigInt(args[5])
	}
	if supply.Sign() == 0 {
		panic("ERC20 supply must be positive")
	}

	id := f.getCount(ic)
	ic.PutUint256([]byte{fracCountKey}, new(uint256.Int).AddUint64(id, 1))

	callContract(ic, nft, nil, &f.NFT.ABI, "safeTransferFrom", owner, self, nftID)
	if toAddress(callContract(ic, nft, nil, &f.NFT.ABI, "ownerOf", nftID)[0]) != self {
		panic("NFT was not transferred to the fractionalizer")
	}
	erc20 := ic.Create(nativenames.ERC20Factory, nil, name, symbol, supply, owner)

	l := &FracNFT{
		FracNFTID:     id.ToBig(),
		OriginalOwner: owner,
		NFTTokenID:    nftID,
		ERC721Address: nft,
		ERC20Address:  erc20,
		ERC20Name:     name,
		ERC20Symbol:   symbol,
		ERC20Supply:   supply,
		BuyoutPrice:   price,
		State:         Fractionalized,
	}
	f.putListing(ic, l)
	ic.Emit(&f.ContractMD, "Fractionalized", l.FracNFTID, owner, erc20, nft, nftID, supply, price)
	return []any{erc20}
}

func (f *Fractionalizer) buyout(ic *interop.Context, args []any) []any {
	id := toUint256(toBigInt(args[0]))
	l := f.getListing(ic, id)
	if l.State != Fractionalized {
		panic(fmt.Sprintf("fracNFT is %s", l.State))
	}
	if l.BuyoutPrice.Sign() == 0 {
		panic("buyout is disabled for this fracNFT")
	}
	if ic.Value().Cmp(l.BuyoutPrice) != 0 {
		panic(fmt.Sprintf("buyout requires exactly %s wei", l.BuyoutPrice))
	}
	buyer := ic.Caller()
	l.State = BoughtOut
	f.putListing(ic, l)
	ic.PutUint256(makeIDKey(prefixPayout, id), toUint256(l.BuyoutPrice))

	callContract(ic, l.ERC721Address, nil, &f.NFT.ABI, "safeTransferFrom", ic.Self(), buyer, l.NFTTokenID)
	ic.Emit(&f.ContractMD, "BoughtOut", l.FracNFTID, buyer, l.BuyoutPrice)
	return nil
}

func (f *Fractionalizer) redeem(ic *interop.Context, args []any) []any {
	l := f.getListing(ic, toUint256(toBigInt(args[0])))
	if l.State != Fractionalized {
		panic(fmt.Sprintf("fracNFT is %s", l.State))
	}
	redeemer := ic.Caller()
	balance := f.erc20Balance(ic, l.ERC20Address, redeemer)
	supply := f.erc20Supply(ic, l.ERC20Address)
	if supply.Sign() == 0 {
		panic("ERC20 supply is fully burned")
	}
	if balance.Cmp(supply) != 0 {
		panic("redeemer must hold the entire ERC20 supply")
	}
	l.State = Redeemed
	f.putListing(ic, l)

	callContract(ic, l.ERC20Address, nil, &f.ERC20.ABI, "burnFrom", redeemer, supply)
	callContract(ic, l.ERC721Address, nil, &f.NFT.ABI, "safeTransferFrom", ic.Self(), redeemer, l.NFTTokenID)
	ic.Emit(&f.ContractMD, "Redeemed", l.FracNFTID, redeemer)
	return nil
}

func (f *Fractionalizer) claim(ic *interop.Context, args []any) []any {
	id := toUint256(toBigInt(args[0]))
	l := f.getListing(ic, id)
	if l.State != BoughtOut {
		panic(fmt.Sprintf("fracNFT is %s", l.State))
	}
	claimant := ic.Caller()
	balance := f.erc20Balance(ic, l.ERC20Address, claimant)
	if balance.Sign() == 0 {
		panic("nothing to claim")
	}
	supply := f.erc20Supply(ic, l.ERC20Address)

	payoutKey := makeIDKey(prefixPayout, id)
	pool := ic.GetUint256(payoutKey)
	payout, overflow := new(uint256.Int).MulDivOverflow(toUint256(balance), pool, toUint256(supply))
	if overflow {
		panic("payout overflow")
	}
	ic.PutUint256(payoutKey, pool.Sub(pool, payout))

	callContract(ic, l.ERC20Address, nil, &f.ERC20.ABI, "burnFrom", claimant, balance)
	ic.Call(claimant, payout.ToBig(), nil)
	ic.Emit(&f.ContractMD, "Claimed", l.FracNFTID, claimant, balance, payout.ToBig())
	return nil
}

func (f *Fractionalizer) erc20Balance(ic *interop.Context, token, acc common.Address) *big.Int {
	return toBigInt(callContract(ic, token, nil, &f.ERC20.ABI, "balanceOf", acc)[0])
}

func (f *Fractionalizer) erc20Supply(ic *interop.Context, token common.Address) *big.Int {
	return toBigInt(callContract(ic, token, nil, &f.ERC20.ABI, "totalSupply")[0])
}
