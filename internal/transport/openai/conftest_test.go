package openai

import (
	openai "github.com/sashabaranov/go-openai"
)

var openaiRequestError = openai.RequestError{
	HTTPStatusCode: 401,
	Body:           []byte(`{"detail":"invalid token"}`),
}
