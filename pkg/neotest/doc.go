/*
Package neotest runs native contracts on an in-process chain from regular Go
tests.

A typical test gets a chain and funded dev accounts from the chain
subpackage, wraps them into an Executor and deploys contracts by name:

	bc, accs := chain.NewSingle(t)
	e := neotest.NewExecutor(t, bc, accs...)
	addr := e.DeployContract(t, nativenames.TestNFT, e.Funder())
	nft := e.NewContractInvoker(t, nativenames.TestNFT, addr)

	nft.Invoke(t, 1, "mintNFT", accs[1].Address(), "ipfs://token")
	nft.WithSigners(accs[1]).InvokeFail(t, "Ownable: caller is not the owner",
		"mintNFT", accs[1].Address(), "ipfs://token")

Invoke and its variants put every transaction into a block of its own and
check the result, Call evaluates a view method without a transaction. NewUnsignedTx, SignTx and
AddNewBlock are there for tests that need several transactions in a block.
*/
package neotest
