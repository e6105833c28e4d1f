package model

// DashboardMetrics 仪表盘聚合数据，每次生成都来自种子数据、当前时间和随机数
type DashboardMetrics struct {
	TotalHours        float64             `json:"totalHours"`
	CoursesCompleted  int                 `json:"coursesCompleted"`
	CommunityRank     int                 `json:"communityRank"`
	Achievements      int                 `json:"achievements"`
	WeeklyProgress    []WeeklyProgress    `json:"weeklyProgress"`
	SkillDistribution []SkillDistribution `json:"skillDistribution"`
	ActivityData      []ActivityData      `json:"activityData"`
	AIInsights        AIInsights          `json:"aiInsights"`
	GeneratedAt       string              `json:"generatedAt,omitempty"`
}

type WeeklyProgress struct {
	Week       string `json:"week"`
	Completed  int    `json:"completed"`
	Target     int    `json:"target"`
	Engagement int    `json:"engagement"` // 0-100
}

type SkillDistribution struct {
	Skill      string `json:"skill"`
	Percentage int    `json:"percentage"` // 0-100
	Growth     int    `json:"growth"`     // 0-100
	Color      string `json:"color"`
}

type ActivityData struct {
	Day       string `json:"day"`
	Courses   int    `json:"courses"`
	Practice  int    `json:"practice"`
	Community int    `json:"community"`
}

type AIInsights struct {
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations"`
	SkillGaps       []string `json:"skillGaps"`
	NextMilestone   string   `json:"nextMilestone"`
	Confidence      int      `json:"confidence"` // 0-100

	LearningTrends       []string                  `json:"learningTrends,omitempty"`
	Strengths            []string                  `json:"strengths,omitempty"`
	NextSteps            []string                  `json:"nextSteps,omitempty"`
	PersonalizedPath     *LearningPath             `json:"personalizedPath,omitempty"`
	CommunityConnections []CommunityRecommendation `json:"communityConnections,omitempty"`
	CreativeStyle        *CreativeStyleAnalysis    `json:"creativeStyle,omitempty"`
}

type LearningPath struct {
	ID             string      `json:"id"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	EstimatedWeeks int         `json:"estimatedWeeks"`
	Milestones     []Milestone `json:"milestones"`
	AdaptiveLevel  string      `json:"adaptiveLevel"` // beginner, intermediate, advanced
}

type Milestone struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	Skills           []string       `json:"skills"`
	EstimatedHours   int            `json:"estimatedHours"`
	Completed        bool           `json:"completed"`
	AIGeneratedTasks []PracticeTask `json:"aiGeneratedTasks"`
}

type PracticeTaskType string

const (
	PracticeTaskPractice    PracticeTaskType = "practice"
	PracticeTaskWatch       PracticeTaskType = "watch"
	PracticeTaskCreate      PracticeTaskType = "create"
	PracticeTaskShare       PracticeTaskType = "share"
	PracticeTaskCollaborate PracticeTaskType = "collaborate"
)

type PracticeTask struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	Type             PracticeTaskType `json:"type"`
	Difficulty       int              `json:"difficulty"`
	EstimatedMinutes int              `json:"estimatedMinutes"`
	AIPersonalized   bool             `json:"aiPersonalized"`
}

type CommunityRecommendation struct {
	Type              string   `json:"type"` // mentor, peer, master
	UserID            string   `json:"userId"`
	Name              string   `json:"name"`
	Expertise         []string `json:"expertise"`
	MatchScore        int      `json:"matchScore"`
	Reason            string   `json:"reason"`
	CollaborationType string   `json:"collaborationType"`
}

type CreativeStyleAnalysis struct {
	DominantStyle   string           `json:"dominantStyle"`
	Influences      []string         `json:"influences"`
	Evolution       []StyleEvolution `json:"evolution"`
	Recommendations []string         `json:"recommendations"`
	AIConfidence    int              `json:"aiConfidence"`
}

type StyleEvolution struct {
	Period          string   `json:"period"`
	Characteristics []string `json:"characteristics"`
	Growth          int      `json:"growth"`
}

// RealTimeMetrics 平台实时概览
type RealTimeMetrics struct {
	ActiveUsers       int      `json:"activeUsers"`
	CoursesInProgress int      `json:"coursesInProgress"`
	CompletionsToday  int      `json:"completionsToday"`
	CommunityPosts    int      `json:"communityPosts"`
	TrendingTopics    []string `json:"trendingTopics"`
}
