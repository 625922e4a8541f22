package ai

import (
	"fmt"

	"mailsift-backend/pkg/textclean"
)

const (
	classifyInputLimit  = 1500
	summarizeInputLimit = 3000
	replyInputLimit     = 4000
)

func classifyPrompt(text string) string {
	return fmt.Sprintf(`Analyze this email and classify it into exactly one category based on these strict rules:

1. Business: Work-related, job applications, invoices, receipts, professional scheduling, transactional emails.
2. Personal: Direct messages from friends/family, casual conversation.
3. Promotional: Newsletters, marketing, sales offers, discounts.
4. Spam: Phishing, obvious junk.

Return ONLY the category word. Do not explain.

Email Content:
%s`, textclean.Truncate(text, classifyInputLimit))
}

// summarizePrompt expects already normalized text
func summarizePrompt(normalized string) string {
	return fmt.Sprintf(`You are an assistant that extracts a single factual summary from an email.
Return a one-line summary (<= 20 words) that focuses on the main action or request in the email.
Then, optionally on the next line, include 'Action:' followed by a one-line suggestion for the user's next step (<= 20 words).
Do not add anything else.

Email:
%s`, textclean.Truncate(normalized, summarizeInputLimit))
}

func replyPrompt(content, intent, senderName string) string {
	return fmt.Sprintf(`You are a helpful professional email assistant.
Task: Draft a reply to an email.
Sender Name: %s
User's Intent: %s
Original Email Context:
%s

Guidelines:
- Keep it professional, concise, and polite.
- Do NOT include a subject line.
- Do NOT include placeholders like "[Your Name]". Use "Best regards,".`,
		senderName, intent, textclean.Truncate(content, replyInputLimit))
}
