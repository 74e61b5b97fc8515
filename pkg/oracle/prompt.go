package oracle

import (
	"fmt"
	"strings"
)

const screeningTemplate = `You are an expert assistant conducting a systematic review screening.
Based on the provided inclusion and exclusion criteria, please analyze the following article's title and abstract.

**Screening Criteria:**
%s

---
**Article Title:** %s
**Article Abstract:** %s
---

**Your Task:**
Decide if this article should be 'include' or 'exclude'.
- If you decide to 'exclude', you MUST provide a concise, two-word reason (e.g., "Not RCT", "Wrong Population", "Review Article", "No Comparison", "High-Risk Patients").
Respond ONLY with a valid JSON object in the following format:
If including: {"decision": "include", "reason": null}
If excluding: {"decision": "exclude", "reason": "Your Two-Word Reason"}
`

const duplicateTemplate = `You are an expert academic researcher. Your task is to determine if the two abstracts below describe the exact same study.
Focus on the core methodology, population, results, and conclusions. Ignore minor formatting or wording differences.
Respond ONLY with a JSON object with two keys: "is_duplicate" (boolean) and "reason" (a brief string explanation).
Abstract 1: --- %s ---
Abstract 2: --- %s ---
`

func screeningPrompt(rubric, title, abstract string) string {
	return fmt.Sprintf(screeningTemplate, strings.TrimSpace(rubric), title, abstract)
}

func duplicatePrompt(a, b string) string {
	return fmt.Sprintf(duplicateTemplate, a, b)
}
