package ai

// ExtractionResult captures the structured output of a field extraction call.
type ExtractionResult struct {
	// Found is false when the user's message does not contain the requested value.
	Found bool `json:"found"`

	// Value is the extracted value for single-value fields.
	Value string `json:"value"`

	// DepartureDate and ReturnDate are filled for the date step (YYYY-MM-DD).
	DepartureDate string `json:"departure_date,omitempty"`
	ReturnDate    string `json:"return_date,omitempty"`
}
