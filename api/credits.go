package api

import (
	"fmt"
	"net/http"

	"github.com/tamsirfall/annonces-market-bot/models"
)

// GetCreditConfig returns the current price per credit. Callers showing the
// price fall back to a neutral default when this fails.
func (c *Client) GetCreditConfig() (*models.CreditConfig, error) {
	var config models.CreditConfig
	if err := c.do(http.MethodGet, "/credits/config", nil, nil, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// GetBalance returns the authenticated user's credit balance. The returned
// value is authoritative; the session cache mirrors it.
func (c *Client) GetBalance() (int, error) {
	var balance int
	if err := c.do(http.MethodGet, "/credits/balance", nil, nil, &balance); err != nil {
		return 0, err
	}
	return balance, nil
}

// creditPurchaseRequest is the purchase payload
type creditPurchaseRequest struct {
	Credits       int    `json:"credits"`
	PaymentMethod string `json:"paymentMethod"`
}

// PurchaseCredits opens a pending credit purchase. The balance is not
// credited until the transaction is confirmed.
func (c *Client) PurchaseCredits(credits int, paymentMethod string) (*models.CreditPurchase, error) {
	var purchase models.CreditPurchase
	body := creditPurchaseRequest{Credits: credits, PaymentMethod: paymentMethod}
	if err := c.do(http.MethodPost, "/credits/purchase", nil, body, &purchase); err != nil {
		return nil, err
	}
	return &purchase, nil
}

// ConfirmPurchase finalizes a pending credit purchase. After a success the
// caller must re-fetch the balance instead of adding credits locally: the
// server may reject a re-confirmation and client arithmetic is never trusted.
func (c *Client) ConfirmPurchase(transactionID int64) (*models.CreditTransaction, error) {
	var tx models.CreditTransaction
	path := fmt.Sprintf("/credits/confirm/%d", transactionID)
	if err := c.do(http.MethodPost, path, nil, struct{}{}, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// GetCreditTransactions returns the user's credit purchase history
func (c *Client) GetCreditTransactions() ([]models.CreditTransaction, error) {
	var txs []models.CreditTransaction
	if err := c.do(http.MethodGet, "/credits/transactions", nil, nil, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// GetAdminCreditConfig returns the credit pricing configuration (admin)
func (c *Client) GetAdminCreditConfig() (*models.CreditConfig, error) {
	var config models.CreditConfig
	if err := c.do(http.MethodGet, "/admin/credits/config", nil, nil, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// UpdateCreditConfig updates the price per credit (admin)
func (c *Client) UpdateCreditConfig(pricePerCreditFcfa int) (*models.CreditConfig, error) {
	var config models.CreditConfig
	body := map[string]int{"pricePerCreditFcfa": pricePerCreditFcfa}
	if err := c.do(http.MethodPut, "/admin/credits/config", nil, body, &config); err != nil {
		return nil, err
	}
	return &config, nil
}
