package utils

import (
	"cmp"
	"math"
	"slices"
	"time"

	"babel/internal/models"
)

type RankConfig struct {
	Gravity   float64 // 时间重力 (1.2)
	AgeOffset float64 // 新帖的起始年龄，避免分母过小 (2h)
}

var DefaultConfig = RankConfig{
	Gravity:   1.2,
	AgeOffset: 2,
}

// RankedPost is a post with its 1-based position in the full ranked window.
type RankedPost struct {
	Post  models.Post `json:"post"`
	Rank  int         `json:"rank"`
	Score float64     `json:"score"`
}

// CalculateScore returns ln(votes+1) / (ageHours+2)^1.2.
// Negative votes count as zero; a missing or unusable age counts as zero hours.
func CalculateScore(votes int, createdAt, now time.Time) float64 {
	return DefaultConfig.Score(votes, AgeHours(createdAt, now))
}

func (c RankConfig) Score(votes int, ageHours float64) float64 {
	// 1. 票数修正，防止负数无法取对数
	if votes < 0 {
		votes = 0
	}
	if ageHours < 0 || math.IsNaN(ageHours) || math.IsInf(ageHours, 0) {
		ageHours = 0
	}

	// 2. 对数平滑，votes=0 时分子为 0
	numerator := math.Log(float64(votes) + 1)

	// 3. 时间衰减
	decay := math.Pow(ageHours+c.AgeOffset, c.Gravity)

	return numerator / decay
}

// AgeHours is the clamped age used by the score. Zero times yield 0.
func AgeHours(createdAt, now time.Time) float64 {
	if createdAt.IsZero() || now.IsZero() {
		return 0
	}
	h := now.Sub(createdAt).Hours()
	if h < 0 || math.IsNaN(h) || math.IsInf(h, 0) {
		return 0
	}
	return h
}

// Rank scores every post against now, sorts descending and numbers the
// result from 1. Equal scores keep their input order.
func Rank(posts []models.Post, now time.Time) []RankedPost {
	ranked := make([]RankedPost, len(posts))
	for i, p := range posts {
		ranked[i] = RankedPost{Post: p, Score: CalculateScore(p.Votes, p.CreatedAt, now)}
	}

	slices.SortStableFunc(ranked, func(a, b RankedPost) int {
		return cmp.Compare(b.Score, a.Score)
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}
