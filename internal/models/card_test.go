package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func validCard() Card {
	return Card{
		ID:     "card-1",
		Title:  "Test Card",
		Price:  42.5,
		Status: StatusMinting,
		Rating: 4,
	}
}

func TestCardValidate(t *testing.T) {
	t.Run("ValidMintingCard", func(t *testing.T) {
		card := validCard()
		assert.NoError(t, card.Validate())
	})

	t.Run("ValidProgressCard", func(t *testing.T) {
		card := validCard()
		card.Status = StatusProgress
		card.Progress = intPtr(50)
		assert.NoError(t, card.Validate())
	})

	t.Run("ValidSoldCard", func(t *testing.T) {
		card := validCard()
		card.Status = StatusSold
		assert.NoError(t, card.Validate())
	})

	t.Run("ProgressBoundsInclusive", func(t *testing.T) {
		for _, p := range []int{0, 100} {
			card := validCard()
			card.Status = StatusProgress
			card.Progress = intPtr(p)
			assert.NoError(t, card.Validate())
		}
	})

	t.Run("ProgressOutOfRange", func(t *testing.T) {
		for _, p := range []int{-1, 101} {
			card := validCard()
			card.Status = StatusProgress
			card.Progress = intPtr(p)
			assert.Error(t, card.Validate())
		}
	})

	t.Run("ProgressWithoutProgressStatus", func(t *testing.T) {
		card := validCard()
		card.Status = StatusMinting
		card.Progress = intPtr(50)
		assert.Error(t, card.Validate())

		card.Status = StatusSold
		assert.Error(t, card.Validate())
	})

	t.Run("ProgressStatusWithoutValue", func(t *testing.T) {
		card := validCard()
		card.Status = StatusProgress
		card.Progress = nil
		assert.Error(t, card.Validate())
	})

	t.Run("UnknownStatus", func(t *testing.T) {
		card := validCard()
		card.Status = CardStatus("burned")
		assert.Error(t, card.Validate())
	})

	t.Run("NegativePrice", func(t *testing.T) {
		card := validCard()
		card.Price = -0.1
		assert.Error(t, card.Validate())
	})

	t.Run("RatingRange", func(t *testing.T) {
		for _, r := range []int{0, 6} {
			card := validCard()
			card.Rating = r
			assert.Error(t, card.Validate())
		}
		for _, r := range []int{1, 5} {
			card := validCard()
			card.Rating = r
			assert.NoError(t, card.Validate())
		}
	})
}

func TestParseTab(t *testing.T) {
	t.Run("AcceptsAllKnownTabs", func(t *testing.T) {
		for _, tab := range ValidTabs {
			parsed, err := ParseTab(string(tab))
			require.NoError(t, err)
			assert.Equal(t, tab, parsed)
		}
	})

	t.Run("RejectsUnknownTab", func(t *testing.T) {
		_, err := ParseTab("hottest")
		assert.Error(t, err)
	})

	t.Run("RejectsEmptyAndCase", func(t *testing.T) {
		_, err := ParseTab("")
		assert.Error(t, err)

		_, err = ParseTab("Trending")
		assert.Error(t, err)
	})
}
