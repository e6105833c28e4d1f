// Package content 集中维护所有兜底 / 演示文案，按场景取用，由 app 注入到各服务
package content

import (
	"creative_learning_backend/internal/model"
	"fmt"
)

type Scenario string

const (
	ScenarioGreeting             Scenario = "greeting"
	ScenarioChatFallback         Scenario = "chat_fallback"
	ScenarioConnectivity         Scenario = "connectivity"
	ScenarioModerated            Scenario = "moderated"
	ScenarioAPIKeyMissing        Scenario = "api_key_missing"
	ScenarioAssistantUnavailable Scenario = "assistant_unavailable"
	ScenarioOfflineGuide         Scenario = "offline_guide"
	ScenarioNoResponse           Scenario = "no_response"
)

// ImageAnalysis 图像分析兜底结构
type ImageAnalysis struct {
	Description string `json:"description"`
	Style       string `json:"style"`
	Technical   string `json:"technical"`
	Colors      string `json:"colors"`
	Composition string `json:"composition"`
}

// LearningJourney 学习旅程兜底结构
type LearningJourney struct {
	Courses   []string `json:"courses"`
	Exercises []string `json:"exercises"`
	SkillPath string   `json:"skillPath"`
	Timeline  string   `json:"timeline"`
	Community string   `json:"community"`
}

type Table struct {
	Messages        map[Scenario]string
	ImageAnalysis   ImageAnalysis
	LearningJourney LearningJourney
	Classification  model.ClassificationResult
	DesignFeedback  model.DesignFeedback
	Metrics         model.DashboardMetrics
	Courses         []model.Course
	BannedWords     []string
}

// Message 取场景文案，args 用于带占位符的文案（如 chat_fallback 的用户原文）
func (t *Table) Message(s Scenario, args ...any) string {
	msg, ok := t.Messages[s]
	if !ok {
		return ""
	}
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}

// ImageAnalysisFor 以模型原文作为描述的图像分析兜底
func (t *Table) ImageAnalysisFor(description string) ImageAnalysis {
	out := t.ImageAnalysis
	out.Description = description
	return out
}

// DesignFeedbackFor 第一条建议使用模型原文前100个字符
func (t *Table) DesignFeedbackFor(text string) model.DesignFeedback {
	fb := t.DesignFeedback
	fb.Aspects = append([]model.DesignAspect(nil), t.DesignFeedback.Aspects...)
	fb.StyleAnalysis = append([]model.StyleShare(nil), t.DesignFeedback.StyleAnalysis...)

	r := []rune(text)
	if len(r) > 100 {
		r = r[:100]
	}
	if len(r) > 0 && len(fb.Aspects) > 0 {
		fb.Aspects[0].Suggestion = string(r)
	}
	return fb
}

// FallbackMetrics 返回兜底仪表盘数据的副本，调用方可以放心修改
func (t *Table) FallbackMetrics() *model.DashboardMetrics {
	m := t.Metrics
	m.WeeklyProgress = append([]model.WeeklyProgress(nil), t.Metrics.WeeklyProgress...)
	m.SkillDistribution = append([]model.SkillDistribution(nil), t.Metrics.SkillDistribution...)
	m.ActivityData = append([]model.ActivityData(nil), t.Metrics.ActivityData...)
	m.AIInsights.Recommendations = append([]string(nil), t.Metrics.AIInsights.Recommendations...)
	m.AIInsights.SkillGaps = append([]string(nil), t.Metrics.AIInsights.SkillGaps...)
	return &m
}

func Default() *Table {
	return &Table{
		Messages: map[Scenario]string{
			ScenarioGreeting:             "Hello! I'm your AI learning companion. I can help you discover personalized courses, track your progress, and provide tailored learning recommendations. What would you like to explore today?",
			ScenarioChatFallback:         "I understand you're asking about \"%s\". While I'm currently unable to connect to my AI services, I'd recommend exploring our course catalog for personalized learning opportunities. You can also try the practice drills to improve your creative skills!",
			ScenarioConnectivity:         "I'm currently experiencing connectivity issues. Please try again in a moment, or explore the courses and practice drills available below!",
			ScenarioModerated:            "Please keep our conversation focused on learning and creative topics.",
			ScenarioAPIKeyMissing:        "The AI service is currently unavailable. Please contact support.",
			ScenarioAssistantUnavailable: "Our AI assistant is temporarily unavailable. Please try again later.",
			ScenarioNoResponse:           "I apologize, but I cannot provide a response at this time.",
			ScenarioOfflineGuide: "**Creative Assistant**\n\n" +
				"I'm currently experiencing connection issues, but here's what I can help you with:\n\n" +
				"**Creative Learning Areas:**\n" +
				"- **Color Theory**: Understanding $HSL = (H, S, L)$ color space\n" +
				"- **Composition**: Apply the golden ratio $\\phi = \\frac{1 + \\sqrt{5}}{2} \\approx 1.618$\n" +
				"- **Design Principles**: Balance, contrast, emphasis, movement\n\n" +
				"**Practice Suggestions:**\n" +
				"1. **Daily Sketching**: 15-30 minutes focused practice\n" +
				"2. **Color Studies**: Explore $RGB$ vs $CMYK$ color models\n" +
				"3. **Portfolio Development**: Curate your best work\n\n" +
				"Try your question again when the connection improves!",
		},
		ImageAnalysis: ImageAnalysis{
			Style:       "Creative and engaging",
			Technical:   "High quality digital art",
			Colors:      "Vibrant and harmonious",
			Composition: "Well-balanced and dynamic",
		},
		LearningJourney: LearningJourney{
			Courses:   []string{"Beginner's Guide", "Intermediate Techniques", "Advanced Mastery"},
			Exercises: []string{"Daily practice for 30 minutes", "Weekly projects", "Monthly challenges"},
			SkillPath: "Beginner → Intermediate → Advanced → Expert",
			Timeline:  "3-6 months for significant progress",
			Community: "Join study groups, share progress, get feedback",
		},
		Classification: model.ClassificationResult{
			Category:      "unknown",
			Confidence:    0,
			Subcategories: []model.SubCategory{},
		},
		DesignFeedback: model.DesignFeedback{
			Aspects: []model.DesignAspect{
				{Aspect: "Color Harmony", Score: 80, Suggestion: "Good color choices"},
				{Aspect: "Composition", Score: 75, Suggestion: "Consider rule of thirds"},
				{Aspect: "Typography", Score: 85, Suggestion: "Font selection works well"},
				{Aspect: "Visual Balance", Score: 78, Suggestion: "Add more white space"},
				{Aspect: "Brand Alignment", Score: 82, Suggestion: "Aligns with brand guidelines"},
			},
			StyleAnalysis: []model.StyleShare{
				{Name: "Modern", Value: 40, Color: "#8B5CF6"},
				{Name: "Minimalist", Value: 30, Color: "#3B82F6"},
				{Name: "Creative", Value: 20, Color: "#10B981"},
				{Name: "Abstract", Value: 10, Color: "#F59E0B"},
			},
			OverallScore: 80,
		},
		Metrics:     fallbackMetrics(),
		Courses:     fallbackCourses(),
		BannedWords: []string{"spam", "hack", "virus", "illegal", "harmful"},
	}
}

func fallbackMetrics() model.DashboardMetrics {
	return model.DashboardMetrics{
		TotalHours:       45,
		CoursesCompleted: 8,
		CommunityRank:    142,
		Achievements:     12,
		WeeklyProgress: []model.WeeklyProgress{
			{Week: "W1", Completed: 2, Target: 3, Engagement: 75},
			{Week: "W2", Completed: 4, Target: 4, Engagement: 85},
			{Week: "W3", Completed: 3, Target: 3, Engagement: 90},
			{Week: "W4", Completed: 5, Target: 4, Engagement: 88},
		},
		SkillDistribution: []model.SkillDistribution{
			{Skill: "Color Theory", Percentage: 85, Growth: 15, Color: "#8B5CF6"},
			{Skill: "Composition", Percentage: 92, Growth: 8, Color: "#3B82F6"},
			{Skill: "Digital Art", Percentage: 78, Growth: 22, Color: "#10B981"},
			{Skill: "Typography", Percentage: 82, Growth: 12, Color: "#F59E0B"},
			{Skill: "Illustration", Percentage: 90, Growth: 18, Color: "#EF4444"},
		},
		ActivityData: []model.ActivityData{
			{Day: "Mon", Courses: 2, Practice: 1, Community: 0},
			{Day: "Tue", Courses: 1, Practice: 2, Community: 1},
			{Day: "Wed", Courses: 3, Practice: 1, Community: 2},
			{Day: "Thu", Courses: 2, Practice: 3, Community: 1},
			{Day: "Fri", Courses: 1, Practice: 2, Community: 3},
			{Day: "Sat", Courses: 4, Practice: 2, Community: 2},
			{Day: "Sun", Courses: 2, Practice: 1, Community: 1},
		},
		AIInsights: model.AIInsights{
			Summary: "Great progress this week! Your consistency is paying off.",
			Recommendations: []string{
				"Focus on advanced techniques",
				"Try the portfolio course",
				"Join community challenges",
			},
			SkillGaps:     []string{"Advanced shading", "Professional presentation"},
			NextMilestone: "Complete 50 total learning hours",
			Confidence:    85,
		},
	}
}

func fallbackCourses() []model.Course {
	return []model.Course{
		{
			ID: "course_1", Title: "AI-Enhanced Digital Art Mastery", Instructor: "Sarah Chen",
			Category: "Art & Design", Level: "Advanced", Duration: 16, EnrolledStudents: 1200, Rating: 4.9, Price: 129,
			Description: "Master the art of AI-powered digital painting and prompt engineering for stunning visuals.",
			Skills:      []string{"AI Art Tools", "Digital Painting", "Prompt Engineering"}, Status: "published",
		},
		{
			ID: "course_2", Title: "Creative Workflow Optimization", Instructor: "Marcus Johnson",
			Category: "Productivity", Level: "Intermediate", Duration: 8, EnrolledStudents: 800, Rating: 4.7, Price: 99,
			Description: "Optimize your creative workflow to maximize productivity and efficiency.",
			Skills:      []string{"Productivity", "Creative Process", "Tool Mastery"}, Status: "published",
		},
		{
			ID: "course_3", Title: "Portfolio Development Masterclass", Instructor: "Elena Rodriguez",
			Category: "Career Development", Level: "Beginner", Duration: 12, EnrolledStudents: 1000, Rating: 4.6, Price: 119,
			Description: "Learn how to create a compelling portfolio that showcases your best work.",
			Skills:      []string{"Portfolio Design", "Presentation", "Career Development"}, Status: "published",
		},
		{
			ID: "course_4", Title: "Advanced Color Theory", Instructor: "David Kim",
			Category: "Art & Design", Level: "Intermediate", Duration: 10, EnrolledStudents: 900, Rating: 4.8, Price: 109,
			Description: "Dive deep into advanced color theory and digital color mixing techniques.",
			Skills:      []string{"Color Mixing", "Color Psychology", "Digital Color"}, Status: "published",
		},
	}
}
