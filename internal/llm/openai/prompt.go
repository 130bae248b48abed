package openai

import "fmt"

// Message is a single chat message in a prompt.
type Message struct {
	Role    string
	Content string
}

const summarizeSystem = "You are a careful technical writer. Summarize the " +
	"provided document text. Capture the main topic, the key points, and any " +
	"important facts or figures. Write a concise summary in plain prose with " +
	"no preamble."

const answerSystem = "You answer questions about a document using only the " +
	"provided summary. If the summary does not contain the answer, say so " +
	"plainly. Answer in one short paragraph with no preamble."

// BuildSummarizePrompt builds the chat messages for summarizing text.
func BuildSummarizePrompt(text string) []Message {
	return []Message{
		{Role: "system", Content: summarizeSystem},
		{Role: "user", Content: text},
	}
}

// BuildAnswerPrompt builds the chat messages for answering a question
// against a summary.
func BuildAnswerPrompt(summary, question string) []Message {
	return []Message{
		{Role: "system", Content: answerSystem},
		{Role: "user", Content: fmt.Sprintf("Summary:\n%s\n\nQuestion: %s", summary, question)},
	}
}
