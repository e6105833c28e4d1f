package util

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Extraction 从模型自由文本中提取 JSON 的结果：Parsed 为 false 时调用方应使用兜底内容，Reason 说明原因
type Extraction struct {
	Parsed bool   `json:"parsed"`
	Reason string `json:"fallbackReason,omitempty"`
}

const (
	ReasonNoJSONObject = "no JSON object found in model output"
	ReasonNoJSONArray  = "no JSON array found in model output"
)

// ExtractJSONObject 取第一个 '{' 到最后一个 '}' 之间的内容解析到 v
func ExtractJSONObject(text string, v any) Extraction {
	return extractSpan(text, '{', '}', ReasonNoJSONObject, v)
}

// ExtractJSONArray 取第一个 '[' 到最后一个 ']' 之间的内容解析到 v
func ExtractJSONArray(text string, v any) Extraction {
	return extractSpan(text, '[', ']', ReasonNoJSONArray, v)
}

func extractSpan(text string, open, close byte, missing string, v any) Extraction {
	start := strings.IndexByte(text, open)
	end := strings.LastIndexByte(text, close)
	if start < 0 || end <= start {
		return Extraction{Reason: missing}
	}

	if err := json.Unmarshal([]byte(text[start:end+1]), v); err != nil {
		return Extraction{Reason: fmt.Sprintf("invalid JSON in model output: %v", err)}
	}
	return Extraction{Parsed: true}
}
