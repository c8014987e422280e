package enums

import "fmt"

// MessageCategory groups catalog entries by the kind of emotional support the
// text offers.
type MessageCategory string

const (
	CategoryAffirmation  MessageCategory = "affirmation"
	CategoryMotivation   MessageCategory = "motivation"
	CategoryComfort      MessageCategory = "comfort"
	CategoryAppreciation MessageCategory = "appreciation"
	CategorySelfWorth    MessageCategory = "self_worth"
)

var validMessageCategories = []MessageCategory{
	CategoryAffirmation,
	CategoryMotivation,
	CategoryComfort,
	CategoryAppreciation,
	CategorySelfWorth,
}

// MessageCategories returns every canonical category in declaration order.
func MessageCategories() []MessageCategory {
	categories := make([]MessageCategory, len(validMessageCategories))
	copy(categories, validMessageCategories)
	return categories
}

// IsValid checks whether the value matches the canonical enum.
func (c MessageCategory) IsValid() bool {
	for _, candidate := range validMessageCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseMessageCategory converts raw strings into MessageCategory.
func ParseMessageCategory(value string) (MessageCategory, error) {
	for _, candidate := range validMessageCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid message category %q", value)
}
