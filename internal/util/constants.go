package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
	// ISOTimeFormat 与浏览器 Date.toISOString 一致
	ISOTimeFormat = "2006-01-02T15:04:05.000Z07:00"
)

const (
	MimeJSON      = "application/json"
	MimeImagePNG  = "image/png"
	MimeTextEvent = "text/event-stream"
)
