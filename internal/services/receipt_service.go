package services

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"fintack/internal/apperrors"
	"fintack/internal/llm"
	"fintack/internal/models"
)

const receiptScanPrompt = `You are an expert data entry assistant specializing in reading Indonesian receipts. Analyze the following receipt image and extract the total amount, the name of the merchant (description), and a relevant spending category (e.g., 'Makanan & Minuman', 'Belanja', 'Transportasi', 'Kebutuhan Rumah'). Return the data ONLY in a valid JSON string format like this: {"amount": 12345, "description": "Nama Toko", "category": "Kategori"}. Do not add any other text or explanations. If you cannot determine a value, use null.`

// ReceiptService extracts transaction fields from a receipt image through a
// one-shot vision call. The result prefills the add-transaction form; it is
// never written to the store directly.
type ReceiptService struct {
	vision llm.Describer
}

// NewReceiptService creates a new receipt service
func NewReceiptService(vision llm.Describer) *ReceiptService {
	return &ReceiptService{vision: vision}
}

// Scan reads one receipt image and returns the extracted fields
func (s *ReceiptService) Scan(ctx context.Context, userID string, imageData []byte, mimeType string) (*models.ReceiptScan, error) {
	if len(imageData) == 0 || mimeType == "" {
		return nil, apperrors.InvalidArgument("image data and mimeType are required")
	}

	log.Printf("🧾 [RECEIPT] Scanning receipt for user %s (%d bytes, %s)", userID, len(imageData), mimeType)

	raw, err := s.vision.Describe(ctx, receiptScanPrompt, imageData, mimeType)
	if err != nil {
		return nil, apperrors.Internal("failed to scan receipt", err)
	}

	scan, err := parseReceiptScan(raw)
	if err != nil {
		return nil, apperrors.Internal("failed to parse receipt scan", err)
	}
	return scan, nil
}

// parseReceiptScan decodes the model's JSON answer, tolerating markdown
// code fences around it.
func parseReceiptScan(raw string) (*models.ReceiptScan, error) {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	var scan models.ReceiptScan
	if err := json.Unmarshal([]byte(cleaned), &scan); err != nil {
		return nil, err
	}
	return &scan, nil
}
