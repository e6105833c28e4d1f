package model

type ModerationCategories struct {
	Harassment bool `json:"harassment"`
	Hate       bool `json:"hate"`
	SelfHarm   bool `json:"selfHarm"`
	Sexual     bool `json:"sexual"`
	Violence   bool `json:"violence"`
}

type ModerationScores struct {
	Harassment float64 `json:"harassment"`
	Hate       float64 `json:"hate"`
	SelfHarm   float64 `json:"selfHarm"`
	Sexual     float64 `json:"sexual"`
	Violence   float64 `json:"violence"`
}

type ModerationResult struct {
	Flagged    bool                 `json:"flagged"`
	Categories ModerationCategories `json:"categories"`
	Scores     ModerationScores     `json:"scores"`
}

type SubCategory struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

type ClassificationResult struct {
	Category      string        `json:"category"`
	Confidence    float64       `json:"confidence"`
	Subcategories []SubCategory `json:"subcategories"`
}

type DesignAspect struct {
	Aspect     string `json:"aspect"`
	Score      int    `json:"score"`
	Suggestion string `json:"suggestion"`
}

type StyleShare struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
	Color string `json:"color"`
}

type DesignFeedback struct {
	Aspects       []DesignAspect `json:"aspects"`
	StyleAnalysis []StyleShare   `json:"styleAnalysis"`
	OverallScore  int            `json:"overallScore"`
}

type DesignVariation struct {
	ID                string `json:"id"`
	DesignID          string `json:"designId,omitempty"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	Confidence        int    `json:"confidence"`
	Type              string `json:"type"`
	Implementation    string `json:"implementation,omitempty"`
	GeneratedImageURL string `json:"generatedImageUrl,omitempty"`
}

// CompletionResult 文本补全结果，Usage 原样透传上游的 usage 字段
type CompletionResult struct {
	Text     string `json:"text"`
	Usage    any    `json:"usage"`
	Degraded bool   `json:"degraded"`
}
