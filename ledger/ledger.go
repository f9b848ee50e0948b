package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/yourusername/coinvest/models"
	"gorm.io/gorm"
)

// TransferLimit is the hard cap on a single peer-to-peer transfer.
var TransferLimit = decimal.NewFromInt(500)

// Service implements every balance mutation as one database transaction:
// the balance write and the appended ledger entry commit together, and the
// balance write is guarded by a version check so concurrent mutations to the
// same account cannot silently overwrite each other.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// applyDelta moves the user's balance by delta using a version-checked
// update. Zero rows affected means another writer got there first.
func applyDelta(tx *gorm.DB, user *models.User, delta decimal.Decimal) error {
	newBalance := user.Balance.Add(delta)
	if newBalance.IsNegative() {
		return ErrInsufficientBalance
	}

	res := tx.Model(&models.User{}).
		Where("id = ? AND version = ?", user.ID, user.Version).
		Updates(map[string]interface{}{
			"balance": newBalance,
			"version": user.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConcurrentUpdate
	}

	user.Balance = newBalance
	user.Version++
	return nil
}

func loadUser(tx *gorm.DB, userID uint) (*models.User, error) {
	var user models.User
	if err := tx.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Deposit records a pending deposit intent. The balance is not credited
// until an admin confirms the deposit arrived on-chain.
func (s *Service) Deposit(ctx context.Context, userID uint, amount decimal.Decimal, details string) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrAmountNotPositive
	}

	if _, err := loadUser(s.db.WithContext(ctx), userID); err != nil {
		return nil, err
	}

	txn := &models.Transaction{
		Reference: uuid.NewString(),
		UserID:    userID,
		Type:      models.TypeDeposit,
		Status:    models.StatusPending,
		Amount:    amount,
		Details:   details,
	}
	if err := s.db.WithContext(ctx).Create(txn).Error; err != nil {
		return nil, err
	}
	return txn, nil
}

// ConfirmDeposit transitions a pending deposit to completed and credits the
// amount, recording balance snapshots on the entry.
func (s *Service) ConfirmDeposit(ctx context.Context, transactionID uint) (*models.Transaction, error) {
	var txn models.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&txn, transactionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotPending
			}
			return err
		}
		if txn.Type != models.TypeDeposit || txn.Status != models.StatusPending {
			return ErrNotPending
		}

		user, err := loadUser(tx, txn.UserID)
		if err != nil {
			return err
		}

		previous := user.Balance
		if err := applyDelta(tx, user, txn.Amount); err != nil {
			return err
		}

		txn.Status = models.StatusCompleted
		txn.PreviousBalance = &previous
		txn.NewBalance = &user.Balance
		return tx.Save(&txn).Error
	})
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// Withdraw debits the requested amount and appends a pending withdrawal
// record carrying the destination bank details. The debit and the record
// commit together; insufficient balance rejects before any write.
func (s *Service) Withdraw(ctx context.Context, userID uint, amount decimal.Decimal, details string) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrAmountNotPositive
	}

	var txn *models.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := loadUser(tx, userID)
		if err != nil {
			return err
		}
		if user.Balance.LessThan(amount) {
			return ErrInsufficientBalance
		}
		if err := applyDelta(tx, user, amount.Neg()); err != nil {
			return err
		}

		txn = &models.Transaction{
			Reference: uuid.NewString(),
			UserID:    userID,
			Type:      models.TypeWithdrawal,
			Status:    models.StatusPending,
			Amount:    amount.Neg(),
			Details:   details,
		}
		return tx.Create(txn).Error
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// Transfer moves amount from the sender to the account registered under
// recipientEmail. Both balance writes and both ledger entries commit in a
// single database transaction, so readers never observe a half-applied
// transfer. Cap and balance checks happen before any write.
func (s *Service) Transfer(ctx context.Context, senderID uint, recipientEmail string, amount decimal.Decimal) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrAmountNotPositive
	}
	if amount.GreaterThan(TransferLimit) {
		return nil, ErrTransferLimitExceeded
	}

	var debit *models.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sender, err := loadUser(tx, senderID)
		if err != nil {
			return err
		}
		if sender.Balance.LessThan(amount) {
			return ErrInsufficientBalance
		}

		var recipient models.User
		if err := tx.Where("email = ?", recipientEmail).First(&recipient).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRecipientNotFound
			}
			return err
		}
		if recipient.ID == sender.ID {
			return ErrSelfTransfer
		}

		if err := applyDelta(tx, sender, amount.Neg()); err != nil {
			return err
		}
		if err := applyDelta(tx, &recipient, amount); err != nil {
			return err
		}

		debit = &models.Transaction{
			Reference:         uuid.NewString(),
			UserID:            sender.ID,
			Type:              models.TypeTransfer,
			Status:            models.StatusCompleted,
			Amount:            amount.Neg(),
			CounterpartyEmail: recipient.Email,
		}
		if err := tx.Create(debit).Error; err != nil {
			return err
		}

		credit := &models.Transaction{
			Reference:         uuid.NewString(),
			UserID:            recipient.ID,
			Type:              models.TypeTransfer,
			Status:            models.StatusCompleted,
			Amount:            amount,
			CounterpartyEmail: sender.Email,
		}
		return tx.Create(credit).Error
	})
	if err != nil {
		return nil, err
	}
	return debit, nil
}

// AdminAdjust applies a signed balance delta on behalf of an operator.
// Action "withdrawal" debits, the rest credit. The audit record carries the
// balance before and after plus the admin flag.
func (s *Service) AdminAdjust(ctx context.Context, userID uint, action models.TransactionType, amount decimal.Decimal) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrAmountNotPositive
	}
	if !action.Valid() || action == models.TypeTransfer {
		return nil, ErrInvalidAction
	}

	var txn *models.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := loadUser(tx, userID)
		if err != nil {
			return err
		}

		delta := amount
		if action == models.TypeWithdrawal {
			if user.Balance.LessThan(amount) {
				return ErrInsufficientBalance
			}
			delta = amount.Neg()
		}

		previous := user.Balance
		if err := applyDelta(tx, user, delta); err != nil {
			return err
		}

		txn = &models.Transaction{
			Reference:       uuid.NewString(),
			UserID:          userID,
			Type:            action,
			Status:          models.StatusCompleted,
			Amount:          delta,
			PreviousBalance: &previous,
			NewBalance:      &user.Balance,
			AdminInitiated:  true,
		}
		return tx.Create(txn).Error
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// SetBalance overrides the balance to an absolute value, recording the
// difference as an admin-initiated deposit or withdrawal entry. A no-op
// override writes nothing.
func (s *Service) SetBalance(ctx context.Context, userID uint, newBalance decimal.Decimal) (*models.Transaction, error) {
	if newBalance.IsNegative() {
		return nil, ErrAmountNotPositive
	}

	var txn *models.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := loadUser(tx, userID)
		if err != nil {
			return err
		}

		delta := newBalance.Sub(user.Balance)
		if delta.IsZero() {
			return nil
		}

		action := models.TypeDeposit
		if delta.IsNegative() {
			action = models.TypeWithdrawal
		}

		previous := user.Balance
		if err := applyDelta(tx, user, delta); err != nil {
			return err
		}

		txn = &models.Transaction{
			Reference:       uuid.NewString(),
			UserID:          userID,
			Type:            action,
			Status:          models.StatusCompleted,
			Amount:          delta,
			PreviousBalance: &previous,
			NewBalance:      &user.Balance,
			AdminInitiated:  true,
		}
		return tx.Create(txn).Error
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// Transactions returns the account's ledger entries, newest first.
func (s *Service) Transactions(ctx context.Context, userID uint) ([]models.Transaction, error) {
	var txns []models.Transaction
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&txns).Error
	return txns, err
}
