package model

import "time"

// Learner 演示用学习者档案，只存在于进程内存
type Learner struct {
	ID             string        `json:"id"`
	Email          string        `json:"email"`
	Name           string        `json:"name"`
	Level          string        `json:"level"`
	JoinDate       time.Time     `json:"joinDate"`
	Stats          LearnerStats  `json:"stats"`
	Skills         []SkillLevel  `json:"skills"` // 保持种子顺序
	Achievements   []Achievement `json:"achievements"`
	RecentActivity []Activity    `json:"recentActivity"`
}

type LearnerStats struct {
	TotalHours       float64 `json:"totalHours"`
	CoursesCompleted int     `json:"coursesCompleted"`
	CommunityRank    int     `json:"communityRank"`
	Streak           int     `json:"streak"`
}

type SkillLevel struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

type Achievement struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	UnlockedAt  time.Time `json:"unlockedAt"`
	Category    string    `json:"category"`
	Points      int       `json:"points"`
}

const (
	ActivityAIChat          = "ai_chat"
	ActivityCourseCompleted = "course_completed"
)

type Activity struct {
	ID          string            `json:"id"`
	Type        string            `json:"type"`
	Description string            `json:"description"`
	Timestamp   time.Time         `json:"timestamp"`
	Metadata    map[string]string `json:"metadata"`
}
