package decompose

import "fmt"

// systemPrompt frames the model as a coach rather than a planner.
const systemPrompt = `You are a supportive goal coach. You turn one goal into tiny, safe actions a person can do today. You answer with JSON only.`

// decompositionPrompt is the prompt template for goal decomposition.
const decompositionPrompt = `Break the user's single goal into 5-10 tiny, safe, daily subtasks.
Each subtask is a short imperative sentence (for example "Fill a water bottle").

Return ONLY a JSON object with this exact structure (no other text):
{"items": ["first action", "second action"]}

Goal: %s`

func buildPrompt(goal string) string {
	return fmt.Sprintf(decompositionPrompt, goal)
}
