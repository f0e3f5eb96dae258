package csitest

import "encoding/json"

// ProtocolVersion is the version of the dev host protocol spoken by DevCsi
// and DevServer
const ProtocolVersion = "0.3"

// Function names a batch operation of the dev host protocol
type Function string

// Protocol functions, one per batch operation
const (
	FunctionComplete         Function = "complete"
	FunctionChat             Function = "chat"
	FunctionChunk            Function = "chunk"
	FunctionSearch           Function = "search"
	FunctionSelectLanguage   Function = "select_language"
	FunctionDocuments        Function = "documents"
	FunctionDocumentMetadata Function = "document_metadata"
)

// Functions lists every function of the protocol
var Functions = []Function{
	FunctionComplete,
	FunctionChat,
	FunctionChunk,
	FunctionSearch,
	FunctionSelectLanguage,
	FunctionDocuments,
	FunctionDocumentMetadata,
}

// Envelope is the body of POST /csi. The response body is the JSON array of
// results, one per entry in Requests.
type Envelope struct {
	Version  string          `json:"version"`
	Function Function        `json:"function"`
	Requests json.RawMessage `json:"requests"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}
