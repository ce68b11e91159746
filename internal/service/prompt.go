package service

import (
	"fmt"
	"strings"
)

const defaultTopic = "general debate"

const promptTemplate = `You are an experienced debate coach responding to a student's recorded argument.

Debate topic: %s

Transcript of the student's argument:
"""
%s
"""

Write a spoken response that:
1. Acknowledges the main points the speaker made.
2. Offers a clear, respectful counter-argument.
3. Gives specific, constructive feedback on reasoning and delivery.
4. Closes on an encouraging note.

Keep it between 150 and 200 words. Use plain sentences suitable for reading aloud and for on-screen captions. Do not use lists, headings, or markdown.`

// BuildPrompt renders the rebuttal prompt. The transcript and topic are
// embedded verbatim.
func BuildPrompt(transcript, topic string) string {
	if strings.TrimSpace(topic) == "" {
		topic = defaultTopic
	}
	return fmt.Sprintf(promptTemplate, topic, transcript)
}
