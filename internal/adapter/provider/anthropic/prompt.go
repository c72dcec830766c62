package anthropic

import (
	"fmt"
	"strings"

	"github.com/questforge/questforge/internal/domain"
)

func buildQuestionPrompt(topic domain.TopicContext, count int, kind domain.QuestionKind, difficulty domain.Difficulty) string {
	kindRule := "MULTIPLE_CHOICE with five choices lettered A-E"
	switch kind {
	case domain.QuestionKindTrueFalse:
		kindRule = "TRUE_FALSE with exactly two choices lettered TRUE and FALSE"
	case domain.QuestionKindMixed:
		kindRule = "a mix of MULTIPLE_CHOICE (five choices A-E) and TRUE_FALSE (choices TRUE and FALSE)"
	}

	return fmt.Sprintf(`You are an exam question writer for Brazilian public service exams (concursos).

Write %d practice questions about the topic %q from the subject %q.
Difficulty: %s. Question format: %s.

Output ONLY a valid JSON object matching this exact schema:
{
  "questions": [
    {
      "statement": "<full question statement>",
      "kind": "<MULTIPLE_CHOICE|TRUE_FALSE>",
      "difficulty": "<EASY|MEDIUM|HARD>",
      "correct_answer": "<letter of the correct choice>",
      "choices": [
        {"letter": "<A|B|C|D|E|TRUE|FALSE>", "text": "<choice text>"}
      ]
    }
  ]
}

Rules:
- Statements must be self-contained and unambiguous
- Exactly one choice is correct per question
- Distractors must be plausible but clearly wrong to a prepared candidate
- Output ONLY the JSON, no markdown, no explanations`,
		count, topic.TopicName, topic.SubjectName, difficulty, kindRule)
}

func buildExplanationPrompt(q *domain.Question, topic domain.TopicContext) string {
	var choices strings.Builder
	for _, ch := range q.Choices {
		fmt.Fprintf(&choices, "%s) %s\n", ch.Letter, ch.Text)
	}

	return fmt.Sprintf(`You are a tutor preparing a student for Brazilian public service exams.

Explain why the correct answer to the following question is %q.
Topic: %q (subject %q).

Question:
%s

Choices:
%s
Rules:
- Explain the reasoning behind the correct answer in 2-4 short paragraphs
- Point out why the most tempting wrong choice fails
- Plain text only, no markdown`,
		q.CorrectAnswer, topic.TopicName, topic.SubjectName, q.Statement, choices.String())
}
