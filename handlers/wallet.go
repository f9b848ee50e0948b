package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"regexp"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/yourusername/coinvest/config"
	"github.com/yourusername/coinvest/ledger"
	"github.com/yourusername/coinvest/models"
	"github.com/yourusername/coinvest/utils"
	"gorm.io/gorm"
)

// fallbackBTCPriceUSD stands in for the live rate when the feed is down.
var fallbackBTCPriceUSD = decimal.NewFromInt(50000)

var (
	routingNumberRe = regexp.MustCompile(`^\d{9}$`)
	accountNumberRe = regexp.MustCompile(`^\d{10,12}$`)
)

type WalletHandler struct {
	db          *gorm.DB
	config      *config.Config
	ledger      *ledger.Service
	priceClient utils.PriceClientInterface
}

func NewWalletHandler(db *gorm.DB, cfg *config.Config) *WalletHandler {
	return &WalletHandler{
		db:          db,
		config:      cfg,
		ledger:      ledger.NewService(db),
		priceClient: utils.NewCoinGeckoClient(cfg.PriceFeedURL),
	}
}

func currentUserID(c *gin.Context) (uint, bool) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return 0, false
	}
	return userID.(uint), true
}

func (h *WalletHandler) GetWallet(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *WalletHandler) ListTransactions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	txns, err := h.ledger.Transactions(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
		return
	}

	c.JSON(http.StatusOK, txns)
}

type DepositRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

type depositDetails struct {
	BTCAmount      decimal.Decimal `json:"btc_amount"`
	BTCPriceUSD    decimal.Decimal `json:"btc_price_usd"`
	DepositAddress string          `json:"deposit_address"`
	UserWalletUsed bool            `json:"user_wallet_used"`
}

// Deposit converts the USD amount to a BTC quantity at the current rate and
// records a pending deposit intent. The balance stays untouched until an
// admin confirms the funds arrived.
func (h *WalletHandler) Deposit(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Amount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount must be greater than zero"})
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	price, err := h.priceClient.BTCPriceUSD(c.Request.Context())
	if err != nil {
		log.Printf("price feed unavailable, using fallback: %v", err)
		price = fallbackBTCPriceUSD
	}

	depositAddress := h.config.DepositWalletAddress
	userWalletUsed := false
	if user.WalletAddress != "" {
		depositAddress = user.WalletAddress
		userWalletUsed = true
	}

	details := depositDetails{
		BTCAmount:      req.Amount.DivRound(price, 8),
		BTCPriceUSD:    price,
		DepositAddress: depositAddress,
		UserWalletUsed: userWalletUsed,
	}
	detailsJSON, _ := json.Marshal(details)

	txn, err := h.ledger.Deposit(c.Request.Context(), userID, req.Amount, string(detailsJSON))
	if err != nil {
		respondLedgerError(c, err, "Failed to create deposit")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"transaction":     txn,
		"deposit_address": depositAddress,
		"btc_amount":      details.BTCAmount,
		"message":         "Deposit request submitted. Funds will be credited once the transaction is confirmed.",
	})
}

type WithdrawRequest struct {
	BankName      string          `json:"bank_name" binding:"required"`
	AccountNumber string          `json:"account_number" binding:"required"`
	RoutingNumber string          `json:"routing_number" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
}

type withdrawDetails struct {
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	RoutingNumber string `json:"routing_number"`
}

// Withdraw debits the requested amount and records a pending withdrawal
// destined for the given bank account.
func (h *WalletHandler) Withdraw(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !routingNumberRe.MatchString(req.RoutingNumber) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Routing number must be exactly 9 digits"})
		return
	}
	if !accountNumberRe.MatchString(req.AccountNumber) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Account number must be 10-12 digits"})
		return
	}

	details := withdrawDetails{
		BankName:      req.BankName,
		AccountNumber: req.AccountNumber,
		RoutingNumber: req.RoutingNumber,
	}
	detailsJSON, _ := json.Marshal(details)

	txn, err := h.ledger.Withdraw(c.Request.Context(), userID, req.Amount, string(detailsJSON))
	if err != nil {
		respondLedgerError(c, err, "Failed to process withdrawal")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"transaction": txn,
		"message":     "Withdrawal request submitted and pending review.",
	})
}

type TransferRequest struct {
	RecipientEmail string          `json:"recipient_email" binding:"required,email"`
	Amount         decimal.Decimal `json:"amount" binding:"required"`
}

func (h *WalletHandler) Transfer(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	txn, err := h.ledger.Transfer(c.Request.Context(), userID, req.RecipientEmail, req.Amount)
	if err != nil {
		respondLedgerError(c, err, "Failed to process transfer")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"transaction": txn,
		"message":     "Transfer completed.",
	})
}

type LinkBankAccountRequest struct {
	BankName      string `json:"bank_name" binding:"required"`
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number" binding:"required"`
	RoutingNumber string `json:"routing_number" binding:"required"`
	Address       string `json:"address"`
}

func (h *WalletHandler) LinkBankAccount(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req LinkBankAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !routingNumberRe.MatchString(req.RoutingNumber) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Routing number must be exactly 9 digits"})
		return
	}
	if !accountNumberRe.MatchString(req.AccountNumber) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Account number must be 10-12 digits"})
		return
	}

	account := models.BankAccount{
		UserID:        userID,
		BankName:      req.BankName,
		AccountName:   req.AccountName,
		AccountNumber: req.AccountNumber,
		RoutingNumber: req.RoutingNumber,
		Address:       req.Address,
		Status:        "active",
	}
	if err := h.db.Create(&account).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to link bank account"})
		return
	}

	c.JSON(http.StatusCreated, account)
}

func (h *WalletHandler) ListBankAccounts(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var accounts []models.BankAccount
	if err := h.db.Where("user_id = ?", userID).Order("created_at DESC").
		Find(&accounts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch bank accounts"})
		return
	}

	c.JSON(http.StatusOK, accounts)
}

// ListReferrals returns signups that arrived through the caller's referral
// link. The caller's referral identifier is their account ID.
func (h *WalletHandler) ListReferrals(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	code := strconv.FormatUint(uint64(userID), 10)

	var referrals []models.Referral
	if err := h.db.Where("code = ?", code).Order("created_at DESC").
		Find(&referrals).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch referrals"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"referral_code": code,
		"referrals":     referrals,
	})
}

// respondLedgerError maps ledger domain errors onto HTTP statuses. Business
// rejections read like validation failures; only unknown errors are hidden
// behind a generic message.
func respondLedgerError(c *gin.Context, err error, fallbackMsg string) {
	switch {
	case errors.Is(err, ledger.ErrRecipientNotFound),
		errors.Is(err, ledger.ErrAccountNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrConcurrentUpdate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrAmountNotPositive),
		errors.Is(err, ledger.ErrInsufficientBalance),
		errors.Is(err, ledger.ErrTransferLimitExceeded),
		errors.Is(err, ledger.ErrSelfTransfer),
		errors.Is(err, ledger.ErrInvalidAction),
		errors.Is(err, ledger.ErrNotPending):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallbackMsg})
	}
}
