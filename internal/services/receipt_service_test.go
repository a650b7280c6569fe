package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"fintack/internal/apperrors"
)

type fakeDescriber struct {
	answer  string
	err     error
	prompts []string
}

func (f *fakeDescriber) Describe(_ context.Context, prompt string, _ []byte, _ string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func TestReceiptScan_ParsesFencedJSON(t *testing.T) {
	vision := &fakeDescriber{answer: "```json\n{\"amount\": 45000, \"description\": \"Warung Padang\", \"category\": \"Makanan & Minuman\"}\n```"}
	svc := NewReceiptService(vision)

	scan, err := svc.Scan(context.Background(), "user-1", []byte("img"), "image/jpeg")
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if scan.Amount == nil || *scan.Amount != 45000 {
		t.Errorf("expected amount 45000, got %v", scan.Amount)
	}
	if scan.Description == nil || *scan.Description != "Warung Padang" {
		t.Errorf("expected merchant description, got %v", scan.Description)
	}
	if scan.Category == nil || *scan.Category != "Makanan & Minuman" {
		t.Errorf("expected category, got %v", scan.Category)
	}
	if len(vision.prompts) != 1 || !strings.Contains(vision.prompts[0], "Indonesian receipts") {
		t.Errorf("expected the extraction prompt to reach the model, got %v", vision.prompts)
	}
}

func TestReceiptScan_NullFieldsStayNil(t *testing.T) {
	vision := &fakeDescriber{answer: `{"amount": null, "description": "Toko", "category": null}`}
	svc := NewReceiptService(vision)

	scan, err := svc.Scan(context.Background(), "user-1", []byte("img"), "image/png")
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if scan.Amount != nil {
		t.Errorf("expected nil amount, got %v", *scan.Amount)
	}
	if scan.Category != nil {
		t.Errorf("expected nil category, got %v", *scan.Category)
	}
	if scan.Description == nil || *scan.Description != "Toko" {
		t.Errorf("expected description Toko, got %v", scan.Description)
	}
}

func TestReceiptScan_MissingImageRejected(t *testing.T) {
	svc := NewReceiptService(&fakeDescriber{})
	_, err := svc.Scan(context.Background(), "user-1", nil, "image/jpeg")
	if apperrors.CodeOf(err) != apperrors.CodeInvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
	_, err = svc.Scan(context.Background(), "user-1", []byte("img"), "")
	if apperrors.CodeOf(err) != apperrors.CodeInvalidArgument {
		t.Fatalf("expected InvalidArgument for missing mime type, got %v", err)
	}
}

func TestReceiptScan_UnparseableAnswerIsInternal(t *testing.T) {
	vision := &fakeDescriber{answer: "Sorry, I cannot read this receipt."}
	svc := NewReceiptService(vision)

	_, err := svc.Scan(context.Background(), "user-1", []byte("img"), "image/jpeg")
	if apperrors.CodeOf(err) != apperrors.CodeInternal {
		t.Fatalf("expected Internal, got %v", err)
	}
}

func TestReceiptScan_VisionFailureIsInternal(t *testing.T) {
	vision := &fakeDescriber{err: errors.New("provider down")}
	svc := NewReceiptService(vision)

	_, err := svc.Scan(context.Background(), "user-1", []byte("img"), "image/jpeg")
	if apperrors.CodeOf(err) != apperrors.CodeInternal {
		t.Fatalf("expected Internal, got %v", err)
	}
}
