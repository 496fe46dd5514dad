package observability

// Semantic conventions for observability attributes.
// These constants define standard attribute names to ensure consistency
// across the pipeline stages.

// --- LLM Provider Attributes ---

const (
	// AttrLLMProvider is the name of the LLM provider (e.g., "openai", "ollama")
	AttrLLMProvider = "llm.provider"

	// AttrLLMModel is the model identifier
	AttrLLMModel = "llm.model"

	// AttrLLMEndpoint is the API endpoint URL
	AttrLLMEndpoint = "llm.endpoint"

	// AttrLLMFinishReason is the reason the generation finished
	AttrLLMFinishReason = "llm.finish_reason"

	// AttrLLMTokensPrompt is the number of prompt tokens
	AttrLLMTokensPrompt = "llm.tokens.prompt" // #nosec G101 -- Not a credential, token refers to LLM tokens

	// AttrLLMTokensCompletion is the number of completion tokens
	AttrLLMTokensCompletion = "llm.tokens.completion" // #nosec G101 -- Not a credential, token refers to LLM tokens
)

// --- HTTP Attributes ---

const (
	AttrHTTPMethod           = "http.method"
	AttrHTTPStatusCode       = "http.status_code"
	AttrHTTPURL              = "http.url"
	AttrHTTPRequestBodySize  = "http.request.body.size"
	AttrHTTPResponseBodySize = "http.response.body.size"
)

// --- Pipeline Attributes ---

const (
	// AttrTextLength is the rune length of the text entering the pipeline
	AttrTextLength = "text.length"

	// AttrChunkCount is the number of chunks the text was split into
	AttrChunkCount = "chunk.count"

	// AttrChunkIndex is the zero-based index of the chunk being processed
	AttrChunkIndex = "chunk.index"

	// AttrChunkMode is the chunk dispatch mode ("joined" or "per_chunk")
	AttrChunkMode = "chunk.mode"

	// AttrCandidateSource tells where the JSON candidate came from
	AttrCandidateSource = "parse.candidate.source"

	// AttrParseStage is the terminal state of the two-stage parse
	AttrParseStage = "parse.stage"

	// AttrParseFixups lists the repair fixups that were applied
	AttrParseFixups = "parse.fixups"

	// AttrResponseContent is the (truncated) raw response from the service
	AttrResponseContent = "response.content"

	// AttrTableRows is the number of rows in the normalized table
	AttrTableRows = "table.rows"

	// AttrTableColumns is the number of columns in the normalized table
	AttrTableColumns = "table.columns"

	// AttrTablePruned lists the columns removed because they carried no value
	AttrTablePruned = "table.pruned"

	// AttrTableSkipped is the number of non-object records ignored
	AttrTableSkipped = "table.skipped"

	// AttrSinkName identifies a persistence sink
	AttrSinkName = "sink.name"

	// AttrSinkPath is the destination written by a sink
	AttrSinkPath = "sink.path"

	// AttrFetchURL is the page being fetched
	AttrFetchURL = "fetch.url"
)

// --- General Attributes ---

const (
	AttrError             = "error"
	AttrErrorType         = "error.type"
	AttrDuration          = "duration"
	AttrStatus            = "status"
	AttrStatusDescription = "status_description"
)

// --- Span Names ---

const (
	SpanPipelineRun    = "pipeline.run"
	SpanClientSend     = "client.send_message"
	SpanParseResponse  = "parse.response"
	SpanNormalizeTable = "table.normalize"
	SpanFetchPage      = "web.fetch"
	SpanSinkWrite      = "sink.write"
)

// --- Metric Names ---

const (
	MetricClientRequestCount    = "tabscrape.client.request.count"
	MetricClientRequestDuration = "tabscrape.client.request.duration"
	MetricParseRepairCount      = "tabscrape.parse.repair.count"
	MetricParseFailureCount     = "tabscrape.parse.failure.count"
	MetricTableRows             = "tabscrape.table.rows"
	MetricFetchDuration         = "tabscrape.fetch.duration"
)
