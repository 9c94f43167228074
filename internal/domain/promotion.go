package domain

import (
	"math"
	"time"
)

type Applicability string

const (
	AppliesToAll      Applicability = "all"
	AppliesToCategory Applicability = "category"
	AppliesToProduct  Applicability = "product"
)

type Promotion struct {
	ID          string        `json:"id" yaml:"id"`
	Title       string        `json:"title" yaml:"title"`
	Description string        `json:"description" yaml:"description"`
	Image       string        `json:"image,omitempty" yaml:"image"`
	Discount    string        `json:"discount" yaml:"discount"`
	Code        string        `json:"code,omitempty" yaml:"code"`
	Applicable  Applicability `json:"applicable" yaml:"applicable"`
	TargetIDs   []string      `json:"target_ids,omitempty" yaml:"target_ids"`
	StartDate   time.Time     `json:"start_date" yaml:"start_date"`
	EndDate     time.Time     `json:"end_date" yaml:"end_date"`
}

func (p Promotion) IsActive(now time.Time) bool {
	return !now.Before(p.StartDate) && !now.After(p.EndDate)
}

// DaysRemaining rounds up, so a promotion ending later today reports 1.
func (p Promotion) DaysRemaining(now time.Time) int {
	return int(math.Ceil(p.EndDate.Sub(now).Hours() / 24))
}

func (p Promotion) Status(now time.Time) string {
	switch {
	case p.IsActive(now):
		return "active"
	case now.Before(p.StartDate):
		return "upcoming"
	default:
		return "expired"
	}
}
