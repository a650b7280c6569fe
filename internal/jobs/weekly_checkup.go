package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"fintack/internal/llm"
	"fintack/internal/services"
)

const weeklyFallbackText = "Laporan Intel mingguanmu sudah siap. Cek sekarang!"

// WeeklyCheckup analyzes every user's last seven days of spending and drops
// a short insight. Per-user failures are logged and the sweep continues.
type WeeklyCheckup struct {
	users        *services.UserService
	transactions *services.TransactionService
	insights     *services.InsightService
	metrics      *services.Metrics
	generator    llm.Generator
	policy       llm.ConversationPolicy
}

// NewWeeklyCheckup creates the weekly checkup job
func NewWeeklyCheckup(
	users *services.UserService,
	transactions *services.TransactionService,
	insights *services.InsightService,
	metrics *services.Metrics,
	generator llm.Generator,
	policy llm.ConversationPolicy,
) *WeeklyCheckup {
	return &WeeklyCheckup{
		users:        users,
		transactions: transactions,
		insights:     insights,
		metrics:      metrics,
		generator:    generator,
		policy:       policy,
	}
}

// Run sweeps all users once
func (j *WeeklyCheckup) Run(ctx context.Context) error {
	log.Println("📊 [WEEKLY-CHECKUP] Starting weekly financial checkup for all users")

	userIDs, err := j.users.AllUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	if len(userIDs) == 0 {
		log.Println("📊 [WEEKLY-CHECKUP] No users found to analyze")
		return nil
	}

	sevenDaysAgo := time.Now().Add(-7 * 24 * time.Hour)
	analyzed := 0

	for _, userID := range userIDs {
		if err := j.analyzeUser(ctx, userID, sevenDaysAgo); err != nil {
			log.Printf("❌ [WEEKLY-CHECKUP] Failed to process user %s: %v", userID, err)
			continue
		}
		analyzed++
	}

	log.Printf("✅ [WEEKLY-CHECKUP] Finished: %d/%d users analyzed", analyzed, len(userIDs))
	return nil
}

func (j *WeeklyCheckup) analyzeUser(ctx context.Context, userID string, since time.Time) error {
	txs, err := j.transactions.Since(ctx, userID, since)
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		log.Printf("📊 [WEEKLY-CHECKUP] User %s has no recent transactions, skipping", userID)
		return nil
	}

	var totalExpense float64
	categories := make([]string, 0, len(txs))
	for _, tx := range txs {
		if tx.Type == "expense" {
			totalExpense += tx.Amount
		}
		categories = append(categories, tx.Category)
	}
	categoriesJSON, _ := json.Marshal(categories)

	var prompt strings.Builder
	prompt.WriteString("Analyze this user's weekly financial data summary. Provide one sharp, provocative insight in \"Mentor Mode\" based on their spending. Keep it short and punchy. Start with \"Woi, Laporan Intel mingguan lo udah keluar.\"\n\n")
	prompt.WriteString("DATA:\n")
	prompt.WriteString(fmt.Sprintf("- Total expense in the last 7 days: IDR %.0f\n", totalExpense))
	prompt.WriteString(fmt.Sprintf("- Top spending categories: %s", categoriesJSON))

	text := weeklyFallbackText
	resp, err := j.generator.Generate(ctx, j.policy, []llm.Message{
		{Role: "user", Content: prompt.String()},
	})
	if err != nil {
		log.Printf("⚠️ [WEEKLY-CHECKUP] Generation failed for user %s, using fallback: %v", userID, err)
	} else if strings.TrimSpace(resp.Content) != "" {
		text = resp.Content
	}

	if _, err := j.insights.Create(ctx, userID, text); err != nil {
		return err
	}
	if j.metrics != nil {
		j.metrics.Insights.WithLabelValues("weekly").Inc()
	}
	return nil
}
