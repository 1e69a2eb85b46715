/*
Package core implements the development chain ledger. Blockchain keeps
account balances and native contract storage, takes transactions from the
pool into blocks and stores execution results for receipts and logs.

# Events

Blocks and transaction executions are announced to channels registered with
SubscribeForBlocks and SubscribeForExecutions. The chain never closes them,
unsubscribe first and then close. Executions of a block come in block
order and before the block itself.

Sends are blocking, a subscriber that doesn't read stalls block processing.
*/
package core
