package ledger

import "errors"

var (
	// ErrAmountNotPositive rejects zero or negative mutation amounts.
	ErrAmountNotPositive = errors.New("amount must be greater than zero")

	// ErrInsufficientBalance rejects debits larger than the current balance.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrTransferLimitExceeded rejects transfers above the per-transfer cap.
	ErrTransferLimitExceeded = errors.New("transfer limit exceeded")

	// ErrRecipientNotFound means no account matched the recipient email.
	ErrRecipientNotFound = errors.New("recipient not found")

	// ErrSelfTransfer rejects transfers where sender and recipient match.
	ErrSelfTransfer = errors.New("cannot transfer to own account")

	// ErrAccountNotFound means the target account does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrConcurrentUpdate means the balance changed underneath the mutation;
	// the whole operation is rolled back and the caller may retry.
	ErrConcurrentUpdate = errors.New("account was modified concurrently")

	// ErrInvalidAction rejects admin adjustment types outside the closed set.
	ErrInvalidAction = errors.New("invalid adjustment action")

	// ErrNotPending means a confirmation targeted a record that is not a
	// pending deposit.
	ErrNotPending = errors.New("transaction is not a pending deposit")
)
