package services

// ConfidenceLabel is the display text and badge class for a confidence score.
type ConfidenceLabel struct {
	Text  string `json:"text"`
	Class string `json:"class"`
}

// LabelConfidence buckets a 1..100 confidence into the badge shown on prediction pages.
func LabelConfidence(confidence int) ConfidenceLabel {
	switch {
	case confidence >= 85:
		return ConfidenceLabel{Text: "Very High", Class: "success"}
	case confidence >= 70:
		return ConfidenceLabel{Text: "High", Class: "primary"}
	case confidence >= 55:
		return ConfidenceLabel{Text: "Medium", Class: "warning"}
	default:
		return ConfidenceLabel{Text: "Low", Class: "danger"}
	}
}
