package handlers

import (
	"context"
	"encoding/base64"
	"time"

	"fintack/internal/models"
	"fintack/internal/services"

	"github.com/gofiber/fiber/v2"
)

// TransactionHandler exposes transaction recording endpoints
type TransactionHandler struct {
	transactions *services.TransactionService
	receipts     *services.ReceiptService
	users        *services.UserService
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(transactions *services.TransactionService, receipts *services.ReceiptService, users *services.UserService) *TransactionHandler {
	return &TransactionHandler{transactions: transactions, receipts: receipts, users: users}
}

type addTransactionRequest struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Type        string  `json:"type"`
	Category    string  `json:"category"`
}

// Add records a transaction and credits the logging XP
// POST /api/v1/transactions
func (h *TransactionHandler) Add(c *fiber.Ctx) error {
	userID, ok := requireUser(c)
	if !ok {
		return unauthorized(c)
	}

	var req addTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := h.users.EnsureProfile(ctx, userID); err != nil {
		return fail(c, "TRANSACTION-API", err)
	}

	tx, err := h.transactions.Add(ctx, userID, &models.Transaction{
		Description: req.Description,
		Amount:      req.Amount,
		Type:        req.Type,
		Category:    req.Category,
	})
	if err != nil {
		return fail(c, "TRANSACTION-API", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":     true,
		"message":     "Transaksi berhasil ditambahkan. +5 XP!",
		"transaction": tx,
	})
}

// List returns the user's recent transactions
// GET /api/v1/transactions
func (h *TransactionHandler) List(c *fiber.Ctx) error {
	userID, ok := requireUser(c)
	if !ok {
		return unauthorized(c)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	txs, err := h.transactions.ListRecent(ctx, userID, 100)
	if err != nil {
		return fail(c, "TRANSACTION-API", err)
	}

	return c.JSON(fiber.Map{
		"transactions": txs,
	})
}

type scanReceiptRequest struct {
	ImageB64 string `json:"image_b64"`
	MimeType string `json:"mime_type"`
}

// ScanReceipt extracts amount, merchant and category from a receipt image
// to prefill the add-transaction form
// POST /api/v1/transactions/scan-receipt
func (h *TransactionHandler) ScanReceipt(c *fiber.Ctx) error {
	userID, ok := requireUser(c)
	if !ok {
		return unauthorized(c)
	}

	var req scanReceiptRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.ImageB64 == "" || req.MimeType == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Image data and mimeType are required",
		})
	}

	imageData, err := base64.StdEncoding.DecodeString(req.ImageB64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Image data must be base64 encoded",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	scan, err := h.receipts.Scan(ctx, userID, imageData, req.MimeType)
	if err != nil {
		return fail(c, "RECEIPT-API", err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    scan,
	})
}
