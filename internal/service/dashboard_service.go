package service

import (
	"context"
	"creative_learning_backend/internal/content"
	"creative_learning_backend/internal/model"
	"creative_learning_backend/internal/repository"
	"creative_learning_backend/internal/util"
	"creative_learning_backend/pkg/logger"
	"creative_learning_backend/pkg/monitoring"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var popularSkills = map[string]bool{
	"Color Theory": true,
	"Digital Art":  true,
	"Composition":  true,
}

var skillColors = map[string]string{
	"Color Theory": "#8B5CF6",
	"Composition":  "#3B82F6",
	"Digital Art":  "#10B981",
	"Typography":   "#F59E0B",
	"Illustration": "#EF4444",
	"Drawing":      "#6366F1",
	"Painting":     "#EC4899",
}

var creativeStyles = map[string]string{
	"Color Theory": "Colorist",
	"Composition":  "Structural Designer",
	"Digital Art":  "Digital Artist",
	"Typography":   "Typographer",
	"Illustration": "Illustrator",
}

type taskTemplate struct {
	title      string
	kind       model.PracticeTaskType
	difficulty int
}

var skillTaskTemplates = map[string][]taskTemplate{
	"Color Theory": {
		{"Create a monochromatic palette study", model.PracticeTaskPractice, 3},
		{"Analyze master paintings for color harmony", model.PracticeTaskWatch, 2},
		{"Design a poster using complementary colors", model.PracticeTaskCreate, 4},
	},
	"Digital Art": {
		{"Practice digital brush techniques", model.PracticeTaskPractice, 3},
		{"Study digital painting workflows", model.PracticeTaskWatch, 2},
		{"Create a character illustration", model.PracticeTaskCreate, 5},
	},
	"Composition": {
		{"Apply rule of thirds in 5 sketches", model.PracticeTaskPractice, 2},
		{"Analyze composition in photography", model.PracticeTaskWatch, 2},
		{"Design a balanced layout", model.PracticeTaskCreate, 4},
	},
}

var dayNames = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// DashboardService 根据种子数据、当前时间和随机数生成仪表盘数据，结果按用户缓存
type DashboardService struct {
	LearnerRepo *repository.LearnerRepository
	Cache       repository.MetricsCache

	// Now / Random 测试时替换
	Now    func() time.Time
	Random func() float64

	content *content.Table
	group   singleflight.Group
	randMu  sync.Mutex
}

func NewDashboardService(learnerRepo *repository.LearnerRepository, cache repository.MetricsCache, table *content.Table) *DashboardService {
	return &DashboardService{
		LearnerRepo: learnerRepo,
		Cache:       cache,
		Now:         time.Now,
		Random:      rand.Float64,
		content:     table,
	}
}

func (s *DashboardService) nextFloat() float64 {
	s.randMu.Lock()
	defer s.randMu.Unlock()
	return s.Random()
}

// randInt 返回 [0, n)
func (s *DashboardService) randInt(n int) int {
	v := int(s.nextFloat() * float64(n))
	if v >= n {
		v = n - 1
	}
	return v
}

// GetDashboardMetrics 未知用户返回兜底数据且不缓存，并发未命中按用户合并
func (s *DashboardService) GetDashboardMetrics(ctx context.Context, userID string) (*model.DashboardMetrics, error) {
	learner, err := s.LearnerRepo.FindByID(userID)
	if errors.Is(err, util.ErrLearnerNotFound) {
		monitoring.MetricsCacheResults.WithLabelValues("fallback").Inc()
		logger.Log.Warn("Dashboard metrics generation failed, using fallback", zap.String("userId", userID))
		return s.content.FallbackMetrics(), nil
	}
	if err != nil {
		return nil, err
	}

	if cached, ok, err := s.Cache.Get(ctx, userID); err != nil {
		logger.Log.Warn("Metrics cache read failed", zap.String("userId", userID), zap.Error(err))
	} else if ok {
		monitoring.MetricsCacheResults.WithLabelValues("hit").Inc()
		return cached, nil
	}

	monitoring.MetricsCacheResults.WithLabelValues("miss").Inc()
	v, err, _ := s.group.Do(userID, func() (interface{}, error) {
		metrics := s.generate(learner)
		if err := s.Cache.Set(ctx, userID, metrics); err != nil {
			logger.Log.Warn("Metrics cache write failed", zap.String("userId", userID), zap.Error(err))
		}
		return metrics, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.DashboardMetrics), nil
}

func (s *DashboardService) generate(l *model.Learner) *model.DashboardMetrics {
	now := s.Now()
	dow, hour := int(now.Weekday()), now.Hour()
	avg := overallSkillLevel(l)

	skills := s.dynamicSkills(l, dow)
	activityScore := s.recentActivityScore(dow, hour)

	achievements := len(l.Achievements)
	if activityScore > 5 {
		achievements += s.randInt(3)
	}

	rank := int(math.Floor(float64(l.Stats.CommunityRank) - avg/10 - float64(activityScore)))
	if rank < 1 {
		rank = 1
	}

	return &model.DashboardMetrics{
		TotalHours:        l.Stats.TotalHours + float64(s.recentHours(dow, hour)),
		CoursesCompleted:  l.Stats.CoursesCompleted,
		CommunityRank:     rank,
		Achievements:      achievements,
		WeeklyProgress:    s.weeklyProgress(avg, dow),
		SkillDistribution: skills,
		ActivityData:      s.dailyActivity(dow, hour),
		AIInsights:        s.insights(l, skills, avg, now),
		GeneratedAt:       now.UTC().Format(util.ISOTimeFormat),
	}
}

func overallSkillLevel(l *model.Learner) float64 {
	if len(l.Skills) == 0 {
		return 0
	}
	sum := 0
	for _, sk := range l.Skills {
		sum += sk.Level
	}
	return float64(sum) / float64(len(l.Skills))
}

func isWeekend(dow int) bool {
	return dow == 0 || dow == 6
}

func isPeakHour(hour int) bool {
	return hour >= 9 && hour <= 21
}

func skillColor(skill string) string {
	if c, ok := skillColors[skill]; ok {
		return c
	}
	return "#6B7280"
}

func (s *DashboardService) recentPracticeHours(skill string, dow int) float64 {
	bonus := 0.0
	if popularSkills[skill] {
		bonus = 2
	}
	return s.nextFloat()*5 + bonus + float64(dow%3)
}

func (s *DashboardService) skillHistory() []int {
	history := make([]int, 7)
	for i := range history {
		history[i] = 60 + i*5 + s.randInt(10)
	}
	return history
}

func growthTrend(history []int) int {
	if len(history) < 2 {
		return 0
	}
	n := 3
	if len(history) < n {
		n = len(history)
	}
	mean := func(vs []int) float64 {
		sum := 0
		for _, v := range vs {
			sum += v
		}
		return float64(sum) / float64(len(vs))
	}
	earlier := mean(history[:n])
	recent := mean(history[len(history)-n:])
	if earlier == 0 {
		return 0
	}
	return int(math.Round((recent - earlier) / earlier * 100))
}

func (s *DashboardService) dynamicSkills(l *model.Learner, dow int) []model.SkillDistribution {
	out := make([]model.SkillDistribution, 0, len(l.Skills))
	for _, sk := range l.Skills {
		practice := s.recentPracticeHours(sk.Name, dow)
		level := math.Min(100, float64(sk.Level)*(1+practice/10))
		out = append(out, model.SkillDistribution{
			Skill:      sk.Name,
			Percentage: model.ClampPercent(int(math.Round(level))),
			Growth:     model.ClampPercent(growthTrend(s.skillHistory())),
			Color:      skillColor(sk.Name),
		})
	}
	return out
}

func (s *DashboardService) weeklyProgress(avg float64, dow int) []model.WeeklyProgress {
	const baseEngagement = 70
	target := int(math.Floor(3 + avg/20))

	out := make([]model.WeeklyProgress, 0, 4)
	for w := 1; w <= 4; w++ {
		rate := math.Min(1, float64(baseEngagement+w*5)/100)
		out = append(out, model.WeeklyProgress{
			Week:       fmt.Sprintf("W%d", w),
			Completed:  int(math.Floor(float64(target) * rate * (0.8 + s.nextFloat()*0.4))),
			Target:     target,
			Engagement: model.ClampPercent(baseEngagement + w*5 + dow*2),
		})
	}
	return out
}

func (s *DashboardService) dailyActivity(today, hour int) []model.ActivityData {
	out := make([]model.ActivityData, 0, len(dayNames))
	for i, day := range dayNames {
		courses, practice, community := 1.0, 1.0, 0.0
		if i == today && isPeakHour(hour) {
			courses += 2
			practice++
			community++
		}
		boost := 1.0
		if isWeekend(i) {
			boost = 1.5
		}
		out = append(out, model.ActivityData{
			Day:       day,
			Courses:   int(math.Floor(courses * boost * (0.8 + s.nextFloat()*0.4))),
			Practice:  int(math.Floor(practice * boost * (0.8 + s.nextFloat()*0.4))),
			Community: int(math.Floor(community * boost * (0.8 + s.nextFloat()*0.4))),
		})
	}
	return out
}

func (s *DashboardService) recentHours(dow, hour int) int {
	hours := s.randInt(3)
	if isWeekend(dow) {
		hours += 2
	}
	if hour >= 18 && hour <= 22 {
		hours++
	}
	return hours
}

func (s *DashboardService) recentActivityScore(dow, hour int) int {
	score := 0
	if isPeakHour(hour) {
		score += 3
	}
	if isWeekend(dow) {
		score += 2
	}
	return score + s.randInt(5)
}

// learningVelocity 最近7天的活动数折算成速度分
func learningVelocity(l *model.Learner, now time.Time) int {
	count := 0
	for _, a := range l.RecentActivity {
		if now.Sub(a.Timestamp) < 7*24*time.Hour {
			count++
		}
	}
	return count * 10
}

func (s *DashboardService) insights(l *model.Learner, skills []model.SkillDistribution, avg float64, now time.Time) model.AIInsights {
	path := learningPath(l, skills, avg)
	community := communityConnections(skills)

	nextMilestone := "Complete current course"
	if len(path.Milestones) > 0 {
		nextMilestone = path.Milestones[0].Title
	}

	return model.AIInsights{
		Summary:         insightSummary(avg, learningVelocity(l, now)),
		Recommendations: recommendations(skills, path),
		SkillGaps:       skillGaps(skills, l.Level),
		NextMilestone:   nextMilestone,
		Confidence:      model.ClampPercent(int(math.Floor(85 + avg/10))),
		LearningTrends: []string{
			"Increasing focus on digital techniques",
			"Growing interest in color theory",
			"Consistent daily practice sessions",
			"Active community participation",
		},
		Strengths:            topStrengths(skills),
		NextSteps:            nextSteps(path, community),
		PersonalizedPath:     path,
		CommunityConnections: community,
		CreativeStyle:        creativeStyle(l),
	}
}

func insightSummary(avg float64, velocity int) string {
	var level string
	switch {
	case avg > 80:
		level = "You're excelling as a creative learner!"
	case avg > 60:
		level = "You're making steady progress in your creative journey."
	default:
		level = "You're building a strong foundation in creative skills."
	}

	pace := "low"
	switch {
	case velocity > 50:
		pace = "high"
	case velocity > 25:
		pace = "medium"
	}
	return fmt.Sprintf("%s Your learning velocity is %s, and you're showing excellent consistency in your practice.", level, pace)
}

func recommendations(skills []model.SkillDistribution, path *model.LearningPath) []string {
	var out []string
	for _, sk := range skills {
		if sk.Percentage < 70 {
			out = append(out, fmt.Sprintf("Focus on improving %s skills", strings.ToLower(sk.Skill)))
			break
		}
	}
	if len(path.Milestones) > 0 {
		out = append(out, fmt.Sprintf("Complete \"%s\" milestone", path.Milestones[0].Title))
	}
	return append(out, "Join today's community art challenge", "Practice daily sketching for 15 minutes")
}

func skillGaps(skills []model.SkillDistribution, level string) []string {
	var gaps []string
	for _, sk := range skills {
		if sk.Percentage < 60 {
			gaps = append(gaps, sk.Skill+" fundamentals")
		}
	}
	if level == "Intermediate" {
		gaps = append(gaps, "Advanced composition techniques", "Professional workflow optimization")
	}
	if len(gaps) == 0 {
		return []string{"Continue refining current skills"}
	}
	return gaps
}

func sortedByPercentage(skills []model.SkillDistribution) []model.SkillDistribution {
	sorted := append([]model.SkillDistribution(nil), skills...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Percentage > sorted[j].Percentage
	})
	return sorted
}

func topStrengths(skills []model.SkillDistribution) []string {
	out := []string{}
	for _, sk := range sortedByPercentage(skills) {
		if sk.Percentage > 80 && len(out) < 3 {
			out = append(out, sk.Skill)
		}
	}
	return out
}

func learningPath(l *model.Learner, skills []model.SkillDistribution, avg float64) *model.LearningPath {
	milestones := []model.Milestone{}
	for _, sk := range skills {
		if sk.Percentage >= 70 {
			continue
		}
		i := len(milestones)
		milestones = append(milestones, model.Milestone{
			ID:               fmt.Sprintf("milestone_%d", i+1),
			Title:            "Master " + sk.Skill,
			Description:      fmt.Sprintf("Advance your %s skills to professional level", strings.ToLower(sk.Skill)),
			Skills:           []string{sk.Skill},
			EstimatedHours:   20 + i*10,
			AIGeneratedTasks: tasksForSkill(sk.Skill),
		})
		if len(milestones) == 3 {
			break
		}
	}

	adaptive := "beginner"
	switch {
	case avg > 80:
		adaptive = "advanced"
	case avg > 50:
		adaptive = "intermediate"
	}

	return &model.LearningPath{
		ID:             "path_" + l.ID,
		Title:          "Personalized Journey for " + l.Name,
		Description:    "AI-curated learning path based on your creative goals and current skill level",
		EstimatedWeeks: len(milestones) * 2,
		Milestones:     milestones,
		AdaptiveLevel:  adaptive,
	}
}

func tasksForSkill(skill string) []model.PracticeTask {
	templates, ok := skillTaskTemplates[skill]
	if !ok {
		templates = skillTaskTemplates["Digital Art"]
	}
	tasks := make([]model.PracticeTask, 0, len(templates))
	for i, t := range templates {
		tasks = append(tasks, model.PracticeTask{
			ID:               fmt.Sprintf("task_%s_%d", skill, i+1),
			Title:            t.title,
			Description:      fmt.Sprintf("Improve your %s skills through hands-on practice", strings.ToLower(skill)),
			Type:             t.kind,
			Difficulty:       t.difficulty,
			EstimatedMinutes: t.difficulty * 15,
			AIPersonalized:   true,
		})
	}
	return tasks
}

func communityConnections(skills []model.SkillDistribution) []model.CommunityRecommendation {
	top := "Digital Art"
	if sorted := sortedByPercentage(skills); len(sorted) > 0 {
		top = sorted[0].Skill
	}
	return []model.CommunityRecommendation{
		{
			Type:              "mentor",
			UserID:            "mentor_1",
			Name:              "Elena Rodriguez",
			Expertise:         []string{top},
			MatchScore:        92,
			Reason:            fmt.Sprintf("Expert in %s with 10+ years experience", top),
			CollaborationType: "One-on-one mentoring sessions",
		},
		{
			Type:              "peer",
			UserID:            "peer_1",
			Name:              "Alex Chen",
			Expertise:         []string{"Portfolio Development", "Career Growth"},
			MatchScore:        85,
			Reason:            "Similar learning journey and skill level",
			CollaborationType: "Study group and project collaboration",
		},
		{
			Type:              "master",
			UserID:            "master_1",
			Name:              "David Kim",
			Expertise:         []string{"Color Theory", "Advanced Techniques"},
			MatchScore:        98,
			Reason:            "Master class instructor with specialized expertise",
			CollaborationType: "Master class participation",
		},
	}
}

func nextSteps(path *model.LearningPath, community []model.CommunityRecommendation) []string {
	var steps []string
	if len(path.Milestones) > 0 {
		m := path.Milestones[0]
		steps = append(steps, "Start working on: "+m.Title)
		if len(m.AIGeneratedTasks) > 0 {
			steps = append(steps, "Complete task: "+m.AIGeneratedTasks[0].Title)
		}
	}
	for _, c := range community {
		if c.Type == "mentor" {
			steps = append(steps, "Connect with mentor: "+c.Name)
			break
		}
	}
	return append(steps, "Share your progress in the community")
}

func creativeStyle(l *model.Learner) *model.CreativeStyleAnalysis {
	dominant := ""
	best := -1
	for _, sk := range l.Skills {
		if sk.Level > best {
			dominant, best = sk.Name, sk.Level
		}
	}
	style, ok := creativeStyles[dominant]
	if !ok {
		style = "Multi-disciplinary Artist"
	}

	return &model.CreativeStyleAnalysis{
		DominantStyle: style,
		Influences:    []string{"Contemporary Digital Art", "Traditional Painting", "Graphic Design"},
		Evolution: []model.StyleEvolution{
			{Period: "Early Work", Characteristics: []string{"Bold colors", "Simple compositions"}, Growth: 20},
			{Period: "Recent Work", Characteristics: []string{"Refined technique", "Complex layouts"}, Growth: 45},
		},
		Recommendations: []string{
			"Explore mixed media techniques",
			"Study classical art principles",
			"Experiment with different color palettes",
		},
		AIConfidence: 87,
	}
}

func (s *DashboardService) GetRealTimeMetrics() *model.RealTimeMetrics {
	return &model.RealTimeMetrics{
		ActiveUsers:       s.randInt(1000) + 500,
		CoursesInProgress: s.randInt(50) + 25,
		CompletionsToday:  s.randInt(100) + 50,
		CommunityPosts:    s.randInt(20) + 10,
		TrendingTopics:    []string{"AI Art", "Typography", "Portfolio", "Branding", "Color Theory"},
	}
}

// GetRecommendedCourses 以课程模板为基础，报名人数、评分和价格随机生成
func (s *DashboardService) GetRecommendedCourses() []model.Course {
	courses := make([]model.Course, 0, len(s.content.Courses))
	for _, tpl := range s.content.Courses {
		c := tpl
		c.Skills = append([]string(nil), tpl.Skills...)
		c.EnrolledStudents = s.randInt(1000) + 500
		c.Rating = math.Round((s.nextFloat()*0.5+4.5)*10) / 10
		c.Price = s.randInt(50) + 79
		c.Thumbnail = "/api/placeholder/300/200?text=" + url.QueryEscape(tpl.Title)
		c.Description = fmt.Sprintf("Learn %s with expert guidance and hands-on projects.", strings.ToLower(strings.Join(tpl.Skills, ", ")))
		c.Lessons = []model.Lesson{{ID: "lesson_1_1", Title: "Introduction", Duration: 45, Type: "video"}}
		courses = append(courses, c)
	}
	return courses
}

// RecordActivity 未知用户直接忽略，返回 nil；记录成功后清掉该用户的仪表盘缓存
func (s *DashboardService) RecordActivity(ctx context.Context, userID, activityType, description string, metadata map[string]string) *model.Activity {
	meta := map[string]string{"courseId": ""}
	for k, v := range metadata {
		meta[k] = v
	}
	activity := model.Activity{
		ID:          "act_" + model.GenerateUUID(),
		Type:        activityType,
		Description: description,
		Timestamp:   s.Now(),
		Metadata:    meta,
	}

	if _, err := s.LearnerRepo.AddActivity(userID, activity); err != nil {
		logger.Log.Debug("Activity ignored", zap.String("userId", userID), zap.Error(err))
		return nil
	}
	if err := s.Cache.Invalidate(ctx, userID); err != nil {
		logger.Log.Warn("Failed to invalidate dashboard metrics", zap.String("userId", userID), zap.Error(err))
	}
	return &activity
}
