package models

import "time"

// Feedback is the stored result of analysing a conversation session.
type Feedback struct {
	ID                    string                   `json:"id" bson:"_id"`
	UserID                string                   `json:"user_id" bson:"userId"`
	SessionID             string                   `json:"session_id" bson:"sessionId"`
	Language              string                   `json:"language" bson:"language"`
	Transcript            string                   `json:"transcript" bson:"transcript"`
	ConversationExchanges []map[string]interface{} `json:"conversation_exchanges" bson:"conversationExchanges"`
	Mistakes              []map[string]interface{} `json:"mistakes" bson:"mistakes"`
	Strengths             []string                 `json:"strengths" bson:"strengths"`
	Suggestions           []string                 `json:"suggestions" bson:"suggestions"`
	ImprovedSentences     []map[string]interface{} `json:"improved_sentences" bson:"improvedSentences"`
	VocabularySuggestions map[string]interface{}   `json:"vocabulary_suggestions" bson:"vocabularySuggestions"`
	WordBank              map[string][]string      `json:"word_bank" bson:"wordBank"`
	Scores                FeedbackScores           `json:"scores" bson:"scores"`
	CreatedAt             time.Time                `json:"created_at" bson:"createdAt"`
}

// FeedbackScores are 0-100 ratings.
type FeedbackScores struct {
	Overall       int `json:"overall" bson:"overall"`
	Fluency       int `json:"fluency" bson:"fluency"`
	Grammar       int `json:"grammar" bson:"grammar"`
	Vocabulary    int `json:"vocabulary" bson:"vocabulary"`
	Pronunciation int `json:"pronunciation" bson:"pronunciation"`
}

// DefaultScore is used for any score the analysis did not provide.
const DefaultScore = 70
