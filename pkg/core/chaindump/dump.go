package chaindump

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/fracnft/fracnft/pkg/core/block"
)

// DumperRestorer is an interface to get/add blocks from/to.
type DumperRestorer interface {
	AddBlock(block *block.Block) error
	GetBlock(hash common.Hash) (*block.Block, error)
	GetHeaderHash(index uint64) common.Hash
}

// Header is the preamble of a dump file, it is written and read separately
// by a client.
type Header struct {
	Start uint64
	Count uint64
}

// item is a single dumped block.
type item struct {
	Header       block.Header
	Transactions []*types.Transaction
}

// Dump writes count blocks from start to the provided writer.
// Note: header needs to be written separately by a client.
func Dump(bc DumperRestorer, w io.Writer, start, count uint64) error {
	for i := start; i < start+count; i++ {
		bh := bc.GetHeaderHash(i)
		if bh == (common.Hash{}) {
			return fmt.Errorf("no block %d", i)
		}
		b, err := bc.GetBlock(bh)
		if err != nil {
			return err
		}
		err = rlp.Encode(w, &item{Header: b.Header, Transactions: b.Transactions})
		if err != nil {
			return fmt.Errorf("failed to write block %d: %w", i, err)
		}
	}
	return nil
}

// Restore restores blocks from the provided stream. The first skip blocks
// of the stream are ignored. A genesis block is never added, it's only
// checked against the local one. f is called after addition of every block.
func Restore(bc DumperRestorer, s *rlp.Stream, skip, count uint64, f func(b *block.Block) error) error {
	var it item
	for i := uint64(0); i < skip; i++ {
		if err := s.Decode(&it); err != nil {
			return fmt.Errorf("failed to skip block %d: %w", i, err)
		}
	}
	for i := skip; i < skip+count; i++ {
		it = item{}
		if err := s.Decode(&it); err != nil {
			return fmt.Errorf("failed to read block %d: %w", i, err)
		}
		b := &block.Block{Header: it.Header, Transactions: it.Transactions}
		if b.Index == 0 {
			if local := bc.GetHeaderHash(0); local != b.Hash() {
				return fmt.Errorf("genesis block mismatch: dumped %s, local %s", b.Hash(), local)
			}
		} else if err := bc.AddBlock(b); err != nil {
			return fmt.Errorf("failed to add block %d: %w", b.Index, err)
		}
		if f != nil {
			if err := f(b); err != nil {
				return err
			}
		}
	}
	return nil
}
