package interop

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Emit adds the log of the named event of the executing contract. Arguments
// are given in the ABI order, indexed ones become topics.
func (ic *Context) Emit(md *ContractMD, name string, args ...any) {
	ev, ok := md.ABI.Events[name]
	if !ok {
		panic(fmt.Sprintf("%s: unknown event %s", md.Name, name))
	}
	if len(args) != len(ev.Inputs) {
		panic(fmt.Sprintf("%s: event %s expects %d arguments, got %d", md.Name, name, len(ev.Inputs), len(args)))
	}
	var (
		indexed [][]any
		data    []any
	)
	for i, in := range ev.Inputs {
		if in.Indexed {
			indexed = append(indexed, []any{args[i]})
		} else {
			data = append(data, args[i])
		}
	}
	topics := []common.Hash{ev.ID}
	if len(indexed) != 0 {
		t, err := abi.MakeTopics(indexed...)
		if err != nil {
			panic(err)
		}
		for _, h := range t {
			topics = append(topics, h[0])
		}
	}
	packed, err := ev.Inputs.NonIndexed().Pack(data...)
	if err != nil {
		panic(err)
	}
	ic.Logs = append(ic.Logs, &types.Log{
		Address: ic.Self(),
		Topics:  topics,
		Data:    packed,
	})
}
