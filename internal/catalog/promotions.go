package catalog

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joao-fontenele/storefront/internal/domain"
)

type promotionsFile struct {
	Promotions []domain.Promotion `yaml:"promotions"`
}

// Promotions is the static promotions board, loaded once at startup.
type Promotions struct {
	items []domain.Promotion
}

// PromotionView is a promotion as shown on the board at a given instant.
type PromotionView struct {
	domain.Promotion
	Active        bool   `json:"active"`
	Status        string `json:"status"`
	DaysRemaining int    `json:"days_remaining"`
}

func NewPromotions(items []domain.Promotion) *Promotions {
	return &Promotions{items: items}
}

func LoadPromotions(path string) (*Promotions, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open promotions file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ParsePromotions(f)
}

func ParsePromotions(r io.Reader) (*Promotions, error) {
	var file promotionsFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode promotions: %w", err)
	}

	seen := make(map[string]bool, len(file.Promotions))
	for i, p := range file.Promotions {
		if p.ID == "" || p.Title == "" {
			return nil, domain.Invalid(fmt.Sprintf("promotions[%d]", i), "id and title are required")
		}
		if seen[p.ID] {
			return nil, domain.Invalid(fmt.Sprintf("promotions[%d].id", i), "duplicate id %q", p.ID)
		}
		seen[p.ID] = true
		switch p.Applicable {
		case domain.AppliesToAll, domain.AppliesToCategory, domain.AppliesToProduct:
		default:
			return nil, domain.Invalid(fmt.Sprintf("promotions[%d].applicable", i), "unknown value %q", p.Applicable)
		}
		if p.EndDate.Before(p.StartDate) {
			return nil, domain.Invalid(fmt.Sprintf("promotions[%d].end_date", i), "is before start_date")
		}
	}
	return NewPromotions(file.Promotions), nil
}

// Filter returns the promotions with the given applicability, or all of
// them when applicable is empty.
func (p *Promotions) Filter(applicable domain.Applicability) []domain.Promotion {
	out := []domain.Promotion{}
	for _, promo := range p.items {
		if applicable == "" || promo.Applicable == applicable {
			out = append(out, promo)
		}
	}
	return out
}

func (p *Promotions) View(now time.Time, applicable domain.Applicability) []PromotionView {
	filtered := p.Filter(applicable)
	out := make([]PromotionView, 0, len(filtered))
	for _, promo := range filtered {
		out = append(out, PromotionView{
			Promotion:     promo,
			Active:        promo.IsActive(now),
			Status:        promo.Status(now),
			DaysRemaining: promo.DaysRemaining(now),
		})
	}
	return out
}
