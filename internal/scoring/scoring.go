// Package scoring implements the viral-detection heuristic. Score is a
// pure function over one content item and the configured thresholds, so
// every rule can be unit tested against literal inputs.
package scoring

import (
	"fmt"
	"time"

	"RecipeRadar/internal/config"
	"RecipeRadar/internal/domain"
)

const (
	weightViews      = 0.30
	weightLikes      = 0.20
	weightShares     = 0.25
	weightGrowth     = 0.25
	weightEngagement = 0.10

	// minElapsedHours floors the age of freshly published content so the
	// views-per-hour division never explodes or divides by zero.
	minElapsedHours = 0.1

	// engagementRateBonus is the engagement percentage above which the
	// bonus weight applies.
	engagementRateBonus = 5.0

	minSignals = 2
	minScore   = 0.5
)

// Score evaluates one content item against the thresholds and returns the
// verdict. Viral classification requires at least two fired checks and a
// total score of 0.5 or more; the score itself is clamped to [0, 1].
func Score(content domain.RawContent, now time.Time, th config.ThresholdConfig) domain.ViralSignal {
	elapsed := now.Sub(content.PublishedAt).Hours()
	if elapsed < minElapsedHours {
		elapsed = minElapsedHours
	}

	viewsPerHour := float64(content.Views) / elapsed

	var engagementRate float64
	if content.Views > 0 {
		engagementRate = float64(content.Engagement()) / float64(content.Views) * 100
	}

	var (
		signals []string
		score   float64
	)

	if content.Views >= th.ViralViews {
		signals = append(signals, fmt.Sprintf("views:%d", content.Views))
		score += weightViews
	}
	if content.Likes >= th.ViralLikes {
		signals = append(signals, fmt.Sprintf("likes:%d", content.Likes))
		score += weightLikes
	}
	if content.Shares >= th.ViralShares {
		signals = append(signals, fmt.Sprintf("shares:%d", content.Shares))
		score += weightShares
	}

	var growthRate float64
	if th.TimeWindowHours > 0 {
		baseline := float64(th.ViralViews) / float64(th.TimeWindowHours)
		if baseline > 0 {
			growthRate = (viewsPerHour - baseline) / baseline * 100
		}
	}
	if growthRate >= th.GrowthRatePct {
		signals = append(signals, fmt.Sprintf("growth_rate:%.1f%%", growthRate))
		score += weightGrowth
	}

	if engagementRate > engagementRateBonus {
		signals = append(signals, fmt.Sprintf("high_engagement:%.1f%%", engagementRate))
		score += weightEngagement
	}

	if score > 1.0 {
		score = 1.0
	}

	isViral := len(signals) >= minSignals && score >= minScore

	var reason string
	if !isViral {
		switch {
		case len(signals) == 0:
			reason = "no viral signals detected"
		case score < minScore:
			reason = fmt.Sprintf("viral score too low: %.2f", score)
		default:
			reason = fmt.Sprintf("only %d signal detected (minimum: %d)", len(signals), minSignals)
		}
	}

	return domain.ViralSignal{
		Content:    content,
		IsViral:    isViral,
		ViralScore: score,
		GrowthRate: growthRate,
		ElapsedH:   elapsed,
		Signals:    signals,
		Reason:     reason,
	}
}
