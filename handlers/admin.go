package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/yourusername/coinvest/ledger"
	"github.com/yourusername/coinvest/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AdminHandler struct {
	db     *gorm.DB
	ledger *ledger.Service
}

func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{
		db:     db,
		ledger: ledger.NewService(db),
	}
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	var users []models.User
	if err := h.db.Order("created_at DESC").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	c.JSON(http.StatusOK, users)
}

func (h *AdminHandler) GetUser(c *gin.Context) {
	id := c.Param("id")

	var user models.User
	if err := h.db.First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var txns []models.Transaction
	if err := h.db.Where("user_id = ?", user.ID).
		Order("created_at DESC, id DESC").Find(&txns).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":         user,
		"transactions": txns,
	})
}

// Analytics powers the admin dashboard header: user counts and the total
// balance held across all accounts.
func (h *AdminHandler) Analytics(c *gin.Context) {
	var totalUsers, verifiedUsers, pendingDeposits int64

	if err := h.db.Model(&models.User{}).Count(&totalUsers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute analytics"})
		return
	}
	if err := h.db.Model(&models.User{}).Where("verified = ?", true).
		Count(&verifiedUsers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute analytics"})
		return
	}
	if err := h.db.Model(&models.Transaction{}).
		Where("type = ? AND status = ?", models.TypeDeposit, models.StatusPending).
		Count(&pendingDeposits).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute analytics"})
		return
	}

	var totalBalance decimal.Decimal
	row := h.db.Model(&models.User{}).Select("COALESCE(SUM(balance), 0)").Row()
	if err := row.Scan(&totalBalance); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute analytics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_users":      totalUsers,
		"verified_users":   verifiedUsers,
		"pending_deposits": pendingDeposits,
		"total_balance":    totalBalance,
	})
}

type AdjustBalanceRequest struct {
	Action string          `json:"action" binding:"required"`
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// AdjustBalance applies an operator-initiated deposit, withdrawal, referral
// bonus or ROI credit to the account, with a full audit record.
func (h *AdminHandler) AdjustBalance(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	var req AdjustBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	txn, err := h.ledger.AdminAdjust(c.Request.Context(), uint(userID),
		models.TransactionType(req.Action), req.Amount)
	if err != nil {
		respondLedgerError(c, err, "Failed to process adjustment")
		return
	}

	c.JSON(http.StatusCreated, txn)
}

type UpdateUserRequest struct {
	FirstName        *string          `json:"first_name"`
	LastName         *string          `json:"last_name"`
	Country          *string          `json:"country"`
	SecurityQuestion *string          `json:"security_question"`
	SecurityAnswer   *string          `json:"security_answer"`
	WalletAddress    *string          `json:"wallet_address"`
	ReferralCode     *string          `json:"referral_code"`
	Verified         *bool            `json:"verified"`
	Balance          *decimal.Decimal `json:"balance"`
}

// UpdateUser edits profile fields. A balance override goes through the
// ledger so the change leaves an audit record instead of a silent write.
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	id := c.Param("id")

	var user models.User
	if err := h.db.First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.FirstName != nil {
		updates["first_name"] = *req.FirstName
	}
	if req.LastName != nil {
		updates["last_name"] = *req.LastName
	}
	if req.Country != nil {
		updates["country"] = *req.Country
	}
	if req.SecurityQuestion != nil {
		updates["security_question"] = *req.SecurityQuestion
	}
	if req.SecurityAnswer != nil {
		updates["security_answer"] = *req.SecurityAnswer
	}
	if req.WalletAddress != nil {
		updates["wallet_address"] = *req.WalletAddress
	}
	if req.ReferralCode != nil {
		updates["referral_code"] = *req.ReferralCode
	}
	if req.Verified != nil {
		updates["verified"] = *req.Verified
	}

	if len(updates) > 0 {
		if err := h.db.Model(&user).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
			return
		}
	}

	if req.Balance != nil {
		if _, err := h.ledger.SetBalance(c.Request.Context(), user.ID, *req.Balance); err != nil {
			respondLedgerError(c, err, "Failed to override balance")
			return
		}
	}

	if err := h.db.First(&user, user.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reload user"})
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *AdminHandler) VerifyUser(c *gin.Context) {
	id := c.Param("id")

	var user models.User
	if err := h.db.First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if err := h.db.Model(&user).Update("verified", true).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify user"})
		return
	}

	user.Verified = true
	c.JSON(http.StatusOK, user)
}

// DeleteUser hard-deletes the account and everything hanging off it.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	id := c.Param("id")

	var user models.User
	if err := h.db.First(&user, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("user_id = ?", user.ID).
			Delete(&models.Transaction{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("user_id = ?", user.ID).
			Delete(&models.BankAccount{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.ID).
			Delete(&models.PasswordReset{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&user).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

// ListTransactions lists ledger entries across all accounts, optionally
// filtered by status and type, for intent review.
func (h *AdminHandler) ListTransactions(c *gin.Context) {
	query := h.db.Order("created_at DESC, id DESC")

	if status := c.Query("status"); status != "" {
		if !models.TransactionStatus(status).Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
			return
		}
		query = query.Where("status = ?", status)
	}
	if txType := c.Query("type"); txType != "" {
		if !models.TransactionType(txType).Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid type filter"})
			return
		}
		query = query.Where("type = ?", txType)
	}

	var txns []models.Transaction
	if err := query.Find(&txns).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
		return
	}

	c.JSON(http.StatusOK, txns)
}

// ConfirmTransaction settles a pending deposit, crediting the balance.
func (h *AdminHandler) ConfirmTransaction(c *gin.Context) {
	txnID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid transaction id"})
		return
	}

	txn, err := h.ledger.ConfirmDeposit(c.Request.Context(), uint(txnID))
	if err != nil {
		respondLedgerError(c, err, "Failed to confirm deposit")
		return
	}

	c.JSON(http.StatusOK, txn)
}

func (h *AdminHandler) GetChatWidget(c *gin.Context) {
	var setting models.SiteSetting
	err := h.db.First(&setting, "key = ?", models.SettingChatWidgetScript).Error
	if err != nil {
		// No script configured yet is not an error for the console.
		c.JSON(http.StatusOK, gin.H{"script": ""})
		return
	}

	c.JSON(http.StatusOK, gin.H{"script": setting.Value})
}

type SetChatWidgetRequest struct {
	Script string `json:"script"`
}

func (h *AdminHandler) SetChatWidget(c *gin.Context) {
	var req SetChatWidgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	setting := models.SiteSetting{
		Key:   models.SettingChatWidgetScript,
		Value: req.Script,
	}
	if err := h.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save chat widget script"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"script": setting.Value})
}
