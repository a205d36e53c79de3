package adapter

// ParseQuestionList exposes parseQuestionList for testing.
var ParseQuestionList = parseQuestionList
