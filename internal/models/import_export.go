package models

// ImportFormat selects the column contract for question spreadsheets.
type ImportFormat string

const (
	// ImportFormatV1 expects a named header row.
	ImportFormatV1 ImportFormat = "v1"
	// ImportFormatLegacy reproduces the positional column heuristic of the old admin console.
	ImportFormatLegacy ImportFormat = "legacy"
)

// QuestionImportColumns is the v1 header contract, in order.
var QuestionImportColumns = []string{
	"type", "question", "option_1", "option_2", "option_3", "option_4", "correct_option",
}

type ImportValidationError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}
