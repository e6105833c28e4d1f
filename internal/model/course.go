package model

type Course struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Instructor       string   `json:"instructor"`
	Category         string   `json:"category,omitempty"`
	Level            string   `json:"level"`
	Duration         int      `json:"duration"` // 小时
	EnrolledStudents int      `json:"enrolledStudents"`
	Rating           float64  `json:"rating"`
	Price            int      `json:"price"`
	Thumbnail        string   `json:"thumbnail,omitempty"`
	Description      string   `json:"description,omitempty"`
	Skills           []string `json:"skills"`
	Status           string   `json:"status,omitempty"`
	Lessons          []Lesson `json:"lessons,omitempty"`
}

type Lesson struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Duration  int    `json:"duration"` // 分钟
	Type      string `json:"type"`
	Completed bool   `json:"completed"`
}

// CourseSuggestion 大模型推荐的课程，字段结构由提示词约定
type CourseSuggestion struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Instructor     string   `json:"instructor"`
	Level          string   `json:"level"`
	Duration       string   `json:"duration"`
	Rating         float64  `json:"rating"`
	Price          string   `json:"price"`
	Skills         []string `json:"skills"`
	AIMatch        int      `json:"aiMatch"`
	Enrollments    int      `json:"enrollments"`
	CompletionRate int      `json:"completionRate"`
}
