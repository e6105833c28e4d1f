package repository

import (
	"creative_learning_backend/internal/model"
	"creative_learning_backend/internal/util"
	"sync"
	"time"
)

const maxRecentActivity = 50

// LearnerRepository 进程内学习者档案，启动时写入演示用户
type LearnerRepository struct {
	mu       sync.RWMutex
	learners map[string]*model.Learner
}

func NewLearnerRepository() *LearnerRepository {
	r := &LearnerRepository{learners: make(map[string]*model.Learner)}
	seed := SeedLearner()
	r.learners[seed.ID] = seed
	return r
}

// SeedLearner 演示用户 user_1
func SeedLearner() *model.Learner {
	return &model.Learner{
		ID:       "user_1",
		Email:    "john@example.com",
		Name:     "John Creative",
		Level:    "Intermediate",
		JoinDate: time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		Stats: model.LearnerStats{
			TotalHours:       45,
			CoursesCompleted: 8,
			CommunityRank:    142,
			Streak:           12,
		},
		Skills: []model.SkillLevel{
			{Name: "Color Theory", Level: 85},
			{Name: "Composition", Level: 92},
			{Name: "Digital Art", Level: 78},
			{Name: "Typography", Level: 82},
			{Name: "Illustration", Level: 90},
		},
		Achievements: []model.Achievement{
			{
				ID:          "ach_1",
				Title:       "First Course",
				Description: "Completed your first course",
				Icon:        "🎯",
				UnlockedAt:  time.Date(2024, time.January, 20, 0, 0, 0, 0, time.UTC),
				Category:    "learning",
				Points:      100,
			},
		},
		RecentActivity: []model.Activity{},
	}
}

func cloneLearner(l *model.Learner) *model.Learner {
	out := *l
	out.Skills = append([]model.SkillLevel(nil), l.Skills...)
	out.Achievements = append([]model.Achievement(nil), l.Achievements...)
	out.RecentActivity = append([]model.Activity(nil), l.RecentActivity...)
	return &out
}

func (r *LearnerRepository) FindByID(id string) (*model.Learner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.learners[id]
	if !ok {
		return nil, util.ErrLearnerNotFound
	}
	return cloneLearner(l), nil
}

// AddActivity 新活动放在最前，只保留最近50条，并按类型更新统计
func (r *LearnerRepository) AddActivity(id string, activity model.Activity) (*model.Learner, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.learners[id]
	if !ok {
		return nil, util.ErrLearnerNotFound
	}

	l.RecentActivity = append([]model.Activity{activity}, l.RecentActivity...)
	if len(l.RecentActivity) > maxRecentActivity {
		l.RecentActivity = l.RecentActivity[:maxRecentActivity]
	}

	switch activity.Type {
	case model.ActivityAIChat:
		l.Stats.TotalHours += 0.1
	case model.ActivityCourseCompleted:
		l.Stats.CoursesCompleted++
	}
	return cloneLearner(l), nil
}
