package biz

import (
	"fmt"
	"strings"
)

// qnaSystemPrompt frames the model as an intelligence officer and pins
// the answer format. The retrieved context block is interpolated per
// request; a blank block makes the model report that nothing matched
// the case.
const qnaSystemPrompt = "You are a professional Intelligence Officer specialising in law enforcement analysis. All responses must be detailed and presented in professional law enforcement terminology. " +
	"The AI tool is designed to identify, analyse, and summarise relevant unstructured data from various sources based on queries posed by you, the Intelligence Officer.\n\n" +
	"This includes assessing the data’s relevance to ongoing investigations, focusing on potential leads, and aiding in the accumulation of evidence to support law enforcement activities.\n\n" +
	"Only use the following context as data source:\n\nContext:\n %s \n" +
	"If context is blank: 'Reply with No relevant context found with the Case ID specified. Please try again.'\n\n" +
	"If context is not blank, strictly follow your answer in markdown table format.\n---\nQuestion:\nAnalysis:\nFindings:\nSource Reference: Indicate the message time and date of your sources will do.\n---"

// buildQNASystemPrompt interpolates the assembled context block.
func buildQNASystemPrompt(contextBlock string) string {
	return fmt.Sprintf(qnaSystemPrompt, contextBlock)
}

// imageQNASystemPrompt is the answer prompt for image lookups. The
// context block holds image caption documents whose url metadata points
// at the stored exhibit.
const imageQNASystemPrompt = "You are a professional Intelligence Officer specialising in law enforcement analysis. All responses must be detailed and presented in professional law enforcement terminology. " +
	"The AI tool matches image evidence against queries posed by you, the Intelligence Officer.\n\n" +
	"Only use the following context as data source. Each document is the description of one stored exhibit image, with its url:\n\nContext:\n %s \n" +
	"If context is blank: 'Reply with No relevant context found with the Case ID specified. Please try again.'\n\n" +
	"If context is not blank, present each matching exhibit in a markdown table (no spaces) with 2 columns: 'Exhibition Image', 'Description'. Under the Exhibition Image, display the image via its url (![image_title](url))."

// buildImageQNASystemPrompt interpolates the assembled context block.
func buildImageQNASystemPrompt(contextBlock string) string {
	return fmt.Sprintf(imageQNASystemPrompt, contextBlock)
}

// Classifier labels. The classification calls are instructed to answer
// with exactly one of these strings.
const (
	labelCaseAnalysis = "Case Analysis"
	labelImageLookup  = "Image Lookup"
	labelHistoryQuery = "History Query"
	labelDescribe     = "Describe"
)

// retrieverClassifierPrompt routes a query to a retrieval target.
const retrieverClassifierPrompt = "You are a query classifier for a law enforcement analysis tool. Classify the query into exactly one of these categories:\n" +
	"'Case Analysis': the query asks to identify, analyse or summarise case data such as messages, reports or transcripts.\n" +
	"'Image Lookup': the query asks to find, match or look up images or visual evidence.\n" +
	"'History Query': the query refers only to the ongoing conversation itself and needs no case data.\n" +
	"Only return the category name and no other text.\n\nQuery: %s"

// imageClassifierPrompt decides what to do with attached images.
const imageClassifierPrompt = "You are a query classifier for a law enforcement analysis tool. The user attached one or more images. Classify the query into exactly one of these categories:\n" +
	"'Image Lookup': the query asks to find or match similar images in the case database.\n" +
	"'Describe': the query asks to describe, caption or analyse the attached images themselves.\n" +
	"Only return the category name and no other text.\n\nQuery: %s"

// rephraseInstruction turns conversation history plus the current
// question into a standalone search query.
const rephraseInstruction = "Given the above conversation, generate a purposeful and descriptive search query to look up in order to get information relevant to the current question. " +
	"Do not leave out any relevant keywords. Only return the query and no other text."

// lookupDescribePrompt asks the vision model for a search query
// describing an attached image.
const lookupDescribePrompt = "Describe this image succinctly while being descriptive under 30 words to be used as a search query in a vector database."

// ingestCaptionPrompt asks the vision model for the caption that is
// indexed in place of the image.
const ingestCaptionPrompt = "Describe this image succinctly while being descriptive under 30 words to be used as a search query in a vector database."

// buildExhibitCaptionPrompt asks the vision model to caption one
// attached image as a court exhibit, rendered from the stored URL.
func buildExhibitCaptionPrompt(imageURL, query string) string {
	return fmt.Sprintf("Describe this image under 30 words to be used as exhibit captioning for a narcotics team. "+
		"Use markdown table format (no spaces) into 2 columns: 'Exhibition Image', 'Description'. "+
		"Under the Exhibition Image, use this URL: %s to display the image via (![image_title](URL)). User's query: %s", imageURL, query)
}

// buildAudioRestatePrompt asks the chat model to restate clip
// transcripts verbatim.
func buildAudioRestatePrompt(transcripts []string) string {
	return fmt.Sprintf("There is/are %d audio clips. Repeat the exact full audio transcriptions in text format and label each clip if more than 1. "+
		"If transcription is empty, ask user to retry. Transcriptions:%s", len(transcripts), strings.Join(transcripts, ","))
}

// basicTemplate is the standalone intelligence-officer template used by
// the basic streaming endpoint. The conversation is flattened as
// "role: content" lines.
const basicTemplate = `
You are a professional Intelligence Officer specializing in law enforcement analysis. All responses must be detailed and presented in professional law enforcement terminology.

Current conversation:
%s

User: %s

AI: The AI tool is designed to identify, analyze, and summarize relevant unstructured data from various sources based on queries posed by you, the Intelligence Officer. This includes assessing the data’s relevance to ongoing investigations, focusing on potential leads, and aiding in the accumulation of evidence to support law enforcement activities.

Your answer MUST follow and be formatted in MARKDOWN in the following example format:
---
**Question:** Did the suspect sell drugs based on the intercepted conversation?

**Analysis:** The AI tool will examine the communication logs between two individuals, focusing on terminology used, the context of the conversation, and the timing of messages to identify patterns consistent with drug trafficking.

**Findings:**
1. Mention of "new stock" and "very exclusive" suggests a transaction involving rare or valuable items ([dd/mm/yy, hh:mm:ss AM]).
2. The phrase "I was high for hours" directly indicates drug usage ([dd/mm/yy, hh:mm:ss AM]).
3. Discussion about meeting in private places ("Let's go to the back, more private there") and confirming possession of "the stuff" implies secretive behavior typical of illicit dealings ([dd/mm/yy, hh:mm:ss PM] and [dd/mm/yy, hh:mm:sss PM]).
4. Overall, the conversation aligns with patterns observed in narcotics sales, including the scheduling of discreet meetings and direct references to drug effects.

**Source Reference:** The analysis is based on a series of specific WhatsApp messages from a conversation on dd/mm/yyyy between (phone number) and (phone number), particularly messages sent at hh:mm:ss AM, hh:mm:ss PM.
---
`

// buildBasicPrompt interpolates the flattened history and current input.
func buildBasicPrompt(history, input string) string {
	return fmt.Sprintf(basicTemplate, history, input)
}
