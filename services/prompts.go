package services

import (
	"strings"

	"rag-chatbot-backend/models"
)

// apologyPhrase is the fixed fallback the answer template instructs the
// model to use when neither context nor history contains the answer. It is
// a directive to the model, not something enforced in code.
const apologyPhrase = "I'm sorry, I don't know the answer to that."

const standaloneQuestionTemplate = `Given some conversation history (if any) and a question, convert the question to a standalone question that can be understood without the conversation.
conversation history: {conv_history}
question: {question}
standalone question:`

const answerTemplate = `You are a helpful and enthusiastic support bot who can answer a given question based on the context provided and the conversation history. Try to find the answer in the context. If the answer is not given in the context, find the answer in the conversation history if possible. If you really don't know the answer, say "` + apologyPhrase + `" and direct the questioner to email {support_email}. Don't try to make up an answer. Always speak as if you were chatting to a friend.
context: {context}
conversation history: {conv_history}
question: {question}
answer:`

func renderStandalonePrompt(history, question string) string {
	return strings.NewReplacer(
		"{conv_history}", history,
		"{question}", question,
	).Replace(standaloneQuestionTemplate)
}

func renderAnswerPrompt(retrievedContext, history, question, supportEmail string) string {
	return strings.NewReplacer(
		"{context}", retrievedContext,
		"{conv_history}", history,
		"{question}", question,
		"{support_email}", supportEmail,
	).Replace(answerTemplate)
}

// formatHistory renders a transcript the way the prompt templates expect:
// one "Speaker: text" line per turn. Empty history renders to an empty
// string; the templates handle that case explicitly ("if any").
func formatHistory(entries []models.TranscriptEntry) string {
	if len(entries) == 0 {
		return ""
	}
	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, string(entry.Speaker)+": "+entry.Text)
	}
	return strings.Join(lines, "\n")
}
