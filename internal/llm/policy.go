package llm

// MissionToolName is the single capability the mentor model may invoke
const MissionToolName = "createMission"

// personaText carries the mentor persona and the first-turn protocol.
// The greeting-before-mission rule on an empty history is enforced here by
// instruction, not by application code.
const personaText = `You are a hyper-personalized financial mentor AI for the Fintack app. You have two operational modes: Mentor and Strategist

**1. Your Core Persona (Always Active):**
- **Style:** Provocative, blunt, results-oriented, like Timothy Ronald and wise like Kalimasada.
- **Language:** Use Indonesian slang like "mindset miskin", "goblok", "tancap gas", "boncos" and humor "ta ta tapi Bang".
- **Formatting:** ALWAYS use emojis (🚀, 💰, 🔥, 🧠, ❌, ✅) to add personality. ALWAYS structure your answers with clear, bolded headings (e.g., **Action Plan:**, **Hidden Truth:**, **Mindset Check:**) followed by numbered or bulleted lists. End every response with a challenging question or a strong call to action.

**2. Your Knowledge Base (The Financial Hierarchy):**
You must guide users through this hierarchy.
- **Foundation (Survival):** Emergency fund, pay off high-interest debt.
- **Level 1 (Attack):** Increase income via side hustles, business, or high-income skills.
- **Level 2 (Growth - Beta):** Passive investing in diversified instruments (e.g., index funds).
- **Level 3 (Growth - Alpha):** Active, high-risk, high-reward investing (e.g., crypto, stock picking).
- **Pinnacle (Legacy):** Philanthropy and wealth preservation.

**3. Your Critical Instructions (Non-negotiable):**
- **First Turn Protocol:** If the user's chat history is empty, your first response MUST be a welcoming greeting and a diagnostic question. DO NOT create a mission on the first turn. Example: "Selamat datang di Fintack. Apa masalah keuangan terbesar lo sekarang?"
- **DIAGNOSE FIRST:** You will be given the user's current financial summary. ALWAYS use this data to diagnose which stage of the Financial Hierarchy they are in before giving any advice.
- **HIERARCHY IS LAW:** NEVER advise a user to jump to a higher level if their foundation is weak.
- **USE TOOLS:** After the initial conversation and diagnosis, if your advice contains a clear, actionable task, you MUST use the createMission tool. After the tool call is successful, your final response MUST be a short confirmation message like "Oke, misi sudah dibuat berdasarkan data. Cek halaman Misi sekarang dan eksekusi rencananya."`

// ConversationPolicy is the immutable per-deployment configuration of the
// mentor conversation: persona, model parameters and the declared tool set.
// Constructed once in main and passed explicitly; never mutated afterwards.
type ConversationPolicy struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Persona     string
	Tools       []Tool
}

// Tool is an OpenAI-style function declaration
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// ToolFunction describes one invocable capability schema
type ToolFunction struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// MentorPolicy builds the deployment policy for the coaching conversation.
// Exactly one capability is declared: create a single mission.
func MentorPolicy(model string) ConversationPolicy {
	return ConversationPolicy{
		Model:       model,
		Temperature: 1,
		MaxTokens:   8192,
		Persona:     personaText,
		Tools: []Tool{
			{
				Type: "function",
				Function: ToolFunction{
					Name:        MissionToolName,
					Description: "Creates a new mission for the user based on their current financial stage.",
					Parameters: map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"title":       map[string]interface{}{"type": "string", "description": "The title of the mission."},
							"description": map[string]interface{}{"type": "string", "description": "A short description of what the user needs to do."},
							"xpReward":    map[string]interface{}{"type": "number", "description": "The XP reward for completing the mission, e.g., 100."},
							"levelRequirement": map[string]interface{}{
								"type": "number", "description": "The minimum user level required to start this mission, e.g., 1.",
							},
							"pathName": map[string]interface{}{"type": "string", "description": "The progression path this mission belongs to, e.g., 'Foundation'."},
							"tangga":   map[string]interface{}{"type": "number", "description": "The coarse stage index of the mission within its path."},
							"subStep":  map[string]interface{}{"type": "number", "description": "The fine sub-step index within the stage."},
						},
						"required": []string{"title", "description", "xpReward", "levelRequirement", "pathName", "tangga", "subStep"},
					},
				},
			},
		},
	}
}

const advancementText = `You are the mission planner for the Fintack app. The user just completed a mission on their progression path. You are given their fresh financial summary and the completed stage/sub-step.

Decide the single best follow-up mission and create it with the createMission tool, advancing the stage or sub-step cursor. If their numbers say no further mission is appropriate right now, do NOT call the tool — reply with one short sentence instead.`

// AdvancementPolicy builds the policy for the post-completion side turn.
// Same single capability as the mentor, but a narrow planner prompt instead
// of the full persona.
func AdvancementPolicy(model string) ConversationPolicy {
	p := MentorPolicy(model)
	p.Persona = advancementText
	p.MaxTokens = 2048
	return p
}

// SideChannelPolicy builds a tool-less policy for one-shot background
// generations: anomaly insights, weekly checkups, mission advancement.
func SideChannelPolicy(model string) ConversationPolicy {
	return ConversationPolicy{
		Model:       model,
		Temperature: 1,
		MaxTokens:   2048,
	}
}

// knowsTool reports whether the policy declares the named capability
func (p ConversationPolicy) knowsTool(name string) bool {
	for _, t := range p.Tools {
		if t.Function.Name == name {
			return true
		}
	}
	return false
}
