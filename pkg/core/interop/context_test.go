package interop

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/fracnft/fracnft/pkg/core/block"
	"github.com/fracnft/fracnft/pkg/core/dao"
	"github.com/fracnft/fracnft/pkg/core/state"
	"github.com/fracnft/fracnft/pkg/core/storage"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const counterABI = `[
	{"type":"constructor","inputs":[{"name":"start","type":"uint256"}],"stateMutability":"nonpayable"},
	{"type":"function","name":"get","inputs":[],"outputs":[{"name":"","type":"uint256"}],"stateMutability":"view"},
	{"type":"function","name":"inc","inputs":[],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"deposit","inputs":[],"outputs":[],"stateMutability":"payable"},
	{"type":"function","name":"spawn","inputs":[{"name":"start","type":"uint256"}],"outputs":[{"name":"","type":"address"}],"stateMutability":"nonpayable"},
	{"type":"function","name":"forward","inputs":[{"name":"to","type":"address"},{"name":"data","type":"bytes"}],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"event","name":"Incremented","inputs":[{"name":"by","type":"address","indexed":true},{"name":"value","type":"uint256","indexed":false}],"anonymous":false}
]`

const sinkABI = `[
	{"type":"receive","stateMutability":"payable"},
	{"type":"fallback","stateMutability":"nonpayable"}
]`

var counterKey = []byte{1}

type counter struct {
	ContractMD
}

func (c *counter) Metadata() *ContractMD { return &c.ContractMD }

func newCounter() *counter {
	c := &counter{ContractMD: *NewContractMD("Counter", counterABI)}
	c.Constructor = func(ic *Context, args []any) []any {
		start, _ := uint256.FromBig(args[0].(*big.Int))
		ic.PutUint256(counterKey, start)
		return nil
	}
	c.AddMethod("get", func(ic *Context, _ []any) []any {
		return []any{ic.GetUint256(counterKey).ToBig()}
	})
	c.AddMethod("inc", func(ic *Context, _ []any) []any {
		v := ic.GetUint256(counterKey)
		v.AddUint64(v, 1)
		ic.PutUint256(counterKey, v)
		ic.Emit(&c.ContractMD, "Incremented", ic.Caller(), v.ToBig())
		return nil
	})
	c.AddMethod("deposit", func(*Context, []any) []any { return nil })
	c.AddMethod("spawn", func(ic *Context, args []any) []any {
		return []any{ic.Create("Counter", nil, args[0])}
	})
	c.AddMethod("forward", func(ic *Context, args []any) []any {
		ic.Call(args[0].(common.Address), nil, args[1].([]byte))
		return nil
	})
	return c
}

type sink struct {
	ContractMD
}

func (s *sink) Metadata() *ContractMD { return &s.ContractMD }

func newSink() *sink {
	s := &sink{ContractMD: *NewContractMD("Sink", sinkABI)}
	s.Receive = func(ic *Context, _ []any) []any {
		ic.PutUint256([]byte{1}, uint256.MustFromBig(ic.Value()))
		return nil
	}
	s.Fallback = func(ic *Context, args []any) []any {
		ic.PutStorage([]byte{2}, args[0].([]byte))
		return nil
	}
	return s
}

type testRegistry map[string]Contract

func (r testRegistry) ByName(name string) Contract { return r[name] }

var (
	origin  = common.HexToAddress("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")
	someone = common.HexToAddress("0x70997970c51812dc3a010c7d01b50e0d17dc79c8")
)

func newTestContext(t *testing.T) *Context {
	d := dao.NewSimple(storage.NewMemoryStore())
	require.NoError(t, d.PutAccountState(origin, &state.Account{Balance: big.NewInt(1000)}))
	reg := testRegistry{"Counter": newCounter(), "Sink": newSink()}
	return NewContext(d, reg, &block.Header{Index: 1}, nil, origin, zaptest.NewLogger(t))
}

// exec runs the invocation in a separate layer keeping the changes on
// success only.
func exec(ic *Context, to *common.Address, value *big.Int, data []byte, nonce uint64) ([]byte, *common.Address, error) {
	parent := ic.DAO
	ic.DAO = parent.GetPrivate()
	defer func() { ic.DAO = parent }()
	ret, addr, err := ic.Execute(to, value, data, nonce)
	if err != nil {
		return nil, nil, err
	}
	if _, err := ic.DAO.Persist(); err != nil {
		return nil, nil, err
	}
	return ret, addr, nil
}

func deploy(t *testing.T, ic *Context, name string, nonce uint64, args ...any) common.Address {
	data, err := ic.Contracts.ByName(name).Metadata().DeployData(args...)
	require.NoError(t, err)
	_, addr, err := exec(ic, nil, nil, data, nonce)
	require.NoError(t, err)
	require.NotNil(t, addr)
	require.Equal(t, crypto.CreateAddress(origin, nonce), *addr)
	return *addr
}

func pack(t *testing.T, ic *Context, method string, args ...any) []byte {
	data, err := ic.Contracts.ByName("Counter").Metadata().ABI.Pack(method, args...)
	require.NoError(t, err)
	return data
}

func getCounter(t *testing.T, ic *Context, addr common.Address) uint64 {
	ret, _, err := exec(ic, &addr, nil, pack(t, ic, "get"), 0)
	require.NoError(t, err)
	res, err := ic.Contracts.ByName("Counter").Metadata().ABI.Unpack("get", ret)
	require.NoError(t, err)
	return res[0].(*big.Int).Uint64()
}

func TestDeployAndCall(t *testing.T) {
	ic := newTestContext(t)
	addr := deploy(t, ic, "Counter", 0, big.NewInt(5))
	require.True(t, ic.IsContract(addr))

	cs, err := ic.DAO.GetContractState(addr)
	require.NoError(t, err)
	require.Equal(t, "Counter", cs.Name)
	require.Equal(t, origin, cs.Deployer)
	require.Equal(t, uint64(1), cs.Block)

	require.Equal(t, uint64(5), getCounter(t, ic, addr))
	_, _, err = exec(ic, &addr, nil, pack(t, ic, "inc"), 0)
	require.NoError(t, err)
	require.Equal(t, uint64(6), getCounter(t, ic, addr))

	require.Len(t, ic.Logs, 1)
	lg := ic.Logs[0]
	require.Equal(t, addr, lg.Address)
	require.Equal(t, crypto.Keccak256Hash([]byte("Incremented(address,uint256)")), lg.Topics[0])
	require.Equal(t, common.BytesToHash(origin.Bytes()), lg.Topics[1])
	require.Equal(t, common.BigToHash(big.NewInt(6)).Bytes(), lg.Data)
}

func TestDeployUnknown(t *testing.T) {
	ic := newTestContext(t)
	_, _, err := exec(ic, nil, nil, Code("Nope"), 0)
	require.True(t, errors.Is(err, ErrNoCode))

	_, _, err = exec(ic, nil, nil, []byte{1, 2, 3}, 0)
	var fe *FaultError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, "unknown contract code", fe.Message)
}

func TestNonPayable(t *testing.T) {
	ic := newTestContext(t)
	addr := deploy(t, ic, "Counter", 0, big.NewInt(0))

	_, _, err := exec(ic, &addr, big.NewInt(1), pack(t, ic, "inc"), 0)
	require.ErrorContains(t, err, "not payable")

	_, _, err = exec(ic, &addr, big.NewInt(10), pack(t, ic, "deposit"), 0)
	require.NoError(t, err)
	require.Equal(t, int64(10), ic.BalanceOf(addr).Int64())
	require.Equal(t, int64(990), ic.BalanceOf(origin).Int64())
}

func TestUnknownMethodWithoutFallback(t *testing.T) {
	ic := newTestContext(t)
	addr := deploy(t, ic, "Counter", 0, big.NewInt(0))

	_, _, err := exec(ic, &addr, nil, []byte{1, 2, 3, 4}, 0)
	require.ErrorContains(t, err, "not found")
	_, _, err = exec(ic, &addr, nil, nil, 0)
	require.ErrorContains(t, err, "neither receive nor fallback")
}

func TestReceiveAndFallback(t *testing.T) {
	ic := newTestContext(t)
	addr := deploy(t, ic, "Sink", 0)

	_, _, err := exec(ic, &addr, big.NewInt(7), nil, 0)
	require.NoError(t, err)
	require.Equal(t, []byte{7}, ic.DAO.GetStorageItem(addr, []byte{1}))

	_, _, err = exec(ic, &addr, nil, []byte{0xde, 0xad}, 0)
	require.NoError(t, err)
	require.Equal(t, []byte{0xde, 0xad}, ic.DAO.GetStorageItem(addr, []byte{2}))

	_, _, err = exec(ic, &addr, big.NewInt(1), []byte{0xde, 0xad}, 0)
	require.ErrorContains(t, err, "fallback function is not payable")
}

func TestTransferToAccount(t *testing.T) {
	ic := newTestContext(t)
	_, _, err := exec(ic, &someone, big.NewInt(100), nil, 0)
	require.NoError(t, err)
	require.Equal(t, int64(100), ic.BalanceOf(someone).Int64())

	_, _, err = exec(ic, &someone, big.NewInt(5000), nil, 0)
	require.ErrorContains(t, err, "insufficient balance")
}

func TestCreateFromContract(t *testing.T) {
	ic := newTestContext(t)
	addr := deploy(t, ic, "Counter", 0, big.NewInt(0))

	ret, _, err := exec(ic, &addr, nil, pack(t, ic, "spawn", big.NewInt(3)), 0)
	require.NoError(t, err)
	res, err := ic.Contracts.ByName("Counter").Metadata().ABI.Unpack("spawn", ret)
	require.NoError(t, err)
	child := res[0].(common.Address)
	require.Equal(t, crypto.CreateAddress(addr, 1), child)
	require.Equal(t, uint64(3), getCounter(t, ic, child))

	cs, err := ic.DAO.GetContractState(child)
	require.NoError(t, err)
	require.Equal(t, addr, cs.Deployer)

	parent, err := ic.DAO.GetContractState(addr)
	require.NoError(t, err)
	require.Equal(t, uint64(2), parent.Nonce)
}

func TestNestedCallCaller(t *testing.T) {
	ic := newTestContext(t)
	a := deploy(t, ic, "Counter", 0, big.NewInt(0))
	b := deploy(t, ic, "Counter", 1, big.NewInt(0))

	_, _, err := exec(ic, &a, nil, pack(t, ic, "forward", b, pack(t, ic, "inc")), 0)
	require.NoError(t, err)
	require.Equal(t, uint64(1), getCounter(t, ic, b))
	require.Equal(t, uint64(0), getCounter(t, ic, a))
	require.Len(t, ic.Logs, 1)
	require.Equal(t, common.BytesToHash(a.Bytes()), ic.Logs[0].Topics[1])
	require.Equal(t, 0, ic.Depth())
}

func TestInvalidArguments(t *testing.T) {
	ic := newTestContext(t)
	addr := deploy(t, ic, "Counter", 0, big.NewInt(0))
	sel := pack(t, ic, "spawn", big.NewInt(1))[:4]
	_, _, err := exec(ic, &addr, nil, sel, 0)
	require.ErrorContains(t, err, "invalid spawn arguments")
}

func TestParseDeployData(t *testing.T) {
	name, args, err := ParseDeployData(append(Code("Counter"), 1, 2))
	require.NoError(t, err)
	require.Equal(t, "Counter", name)
	require.Equal(t, []byte{1, 2}, args)

	_, _, err = ParseDeployData([]byte{codePrefix, 10, 'a'})
	require.Error(t, err)
	_, _, err = ParseDeployData(nil)
	require.Error(t, err)
}
