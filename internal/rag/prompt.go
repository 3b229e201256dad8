package rag

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// SystemPrompt is sent as the system message by chat-style generators.
const SystemPrompt = "You are an expert AI Audit Assistant. Provide accurate, helpful responses based ONLY on " +
	"the audit data provided in the context. If the answer is not in the context, say 'I don't know'."

var textFields = []string{"text", "narration", "description", "content"}

var metadataFields = []struct {
	key   string
	label string
}{
	{"amount", "amount"},
	{"date", "date"},
	{"account_id", "account"},
	{"transaction_id", "transaction_id"},
	{"collection", "source"},
}

// BuildPrompt lays retrieved documents out as numbered sources, stopping before
// maxContext characters unless no source has been added yet.
func BuildPrompt(query string, hits []Hit, maxContext int) string {
	parts := make([]string, 0, len(hits))
	length := 0
	for i, hit := range hits {
		entry := formatSource(i+1, hit)
		if length+len(entry) > maxContext && len(parts) > 0 {
			break
		}
		parts = append(parts, entry)
		length += len(entry)
	}

	var b strings.Builder
	b.WriteString("You are an expert AI Audit Assistant. Use ONLY the CONTEXT below to answer the QUESTION.\n\n")
	b.WriteString("If the answer is not present in the context, reply \"I don't know\" or \"The information is not available in the provided context.\"\n\n")
	b.WriteString("CONTEXT:\n")
	b.WriteString(strings.Join(parts, "\n\n"))
	b.WriteString("\n\nQUESTION:\n")
	b.WriteString(query)
	b.WriteString("\n\nINSTRUCTIONS:\n")
	b.WriteString("- Answer concisely and accurately based ONLY on the context provided\n")
	b.WriteString("- If you reference numbers, amounts, or dates, ensure they match the context\n")
	b.WriteString("- At the end, list the source IDs you used (e.g., \"Sources: [Source 1, Source 2]\")\n")
	b.WriteString("- If the context doesn't contain relevant information, say so clearly\n\n")
	b.WriteString("RESPONSE:\n")
	return b.String()
}

func formatSource(n int, hit Hit) string {
	var text string
	for _, f := range textFields {
		if s := stringValue(hit.Payload[f]); s != "" {
			text = s
			break
		}
	}

	meta := make([]string, 0, len(metadataFields))
	for _, m := range metadataFields {
		if s := stringValue(hit.Payload[m.key]); s != "" && s != "0" {
			meta = append(meta, m.label+": "+s)
		}
	}

	entry := fmt.Sprintf("[Source %d] id:%s", n, hit.ID)
	if len(meta) > 0 {
		entry += " " + strings.Join(meta, ", ")
	}
	return entry + "\n" + text
}

func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		if t {
			return "true"
		}
		return ""
	default:
		return fmt.Sprint(t)
	}
}

var (
	amountPattern    = regexp.MustCompile(`\$?\s*(\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?)`)
	sourceRefPattern = regexp.MustCompile(`(?i)\[?source\s+\d+\]?`)
)

// VerifyNumericClaims checks every number in answer against the amounts of the
// retrieved documents. It returns false and a warning listing the numbers that
// no document carries.
func VerifyNumericClaims(answer string, hits []Hit) (bool, string) {
	scrubbed := sourceRefPattern.ReplaceAllString(answer, "")
	matches := amountPattern.FindAllStringSubmatch(scrubbed, -1)
	if len(matches) == 0 {
		return true, ""
	}

	known := make([]string, 0, len(hits))
	for _, h := range hits {
		if s := stringValue(h.Payload["amount"]); s != "" {
			known = append(known, normalizeAmount(s))
		}
	}

	var mismatches []string
	for _, m := range matches {
		if !containsAmount(known, normalizeAmount(m[1])) {
			mismatches = append(mismatches, m[1])
		}
	}
	if len(mismatches) == 0 {
		return true, ""
	}
	return false, fmt.Sprintf("\n\n[VERIFICATION WARNING] Some numeric claims (%s) could not be verified from retrieved sources.",
		strings.Join(mismatches, ", "))
}

func normalizeAmount(s string) string {
	return strings.TrimSpace(strings.NewReplacer(",", "", "$", "").Replace(s))
}

func containsAmount(known []string, candidate string) bool {
	cf, cerr := strconv.ParseFloat(candidate, 64)
	for _, k := range known {
		if k == candidate {
			return true
		}
		if cerr == nil {
			if kf, err := strconv.ParseFloat(k, 64); err == nil && kf == cf {
				return true
			}
		}
	}
	return false
}
