package embeddings

// DefaultLocalModel is loaded by the fastembed provider when no model
// is configured. The local ONNX runtime ships English and Chinese
// models only; Ukrainian text goes through the openai provider pointed
// at a multilingual TEI deployment.
const DefaultLocalModel = "BAAI/bge-small-en-v1.5"

// DefaultRemoteModel handles Ukrainian complaint text well. It is the
// default for the openai provider when a non-OpenAI base URL is set.
const DefaultRemoteModel = "intfloat/multilingual-e5-large"

// knownModelDimensions maps supported local model names to their
// embedding dimensions. Both HuggingFace-style and fastembed-style
// names are accepted.
var knownModelDimensions = map[string]int{
	"BAAI/bge-small-en-v1.5":                 384,
	"BAAI/bge-small-en":                      384,
	"BAAI/bge-base-en-v1.5":                  768,
	"BAAI/bge-base-en":                       768,
	"BAAI/bge-small-zh-v1.5":                 512,
	"sentence-transformers/all-MiniLM-L6-v2": 384,
	"fast-bge-small-en-v1.5":                 384,
	"fast-bge-small-en":                      384,
	"fast-bge-base-en-v1.5":                  768,
	"fast-bge-base-en":                       768,
	"fast-bge-small-zh-v1.5":                 512,
	"fast-all-MiniLM-L6-v2":                  384,
}

// fastEmbedModelDimension returns the dimension for known local models.
func fastEmbedModelDimension(model string) (int, bool) {
	dim, ok := knownModelDimensions[model]
	return dim, ok
}
