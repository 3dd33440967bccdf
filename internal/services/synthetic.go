package services

import (
	"fmt"
	"math/rand"
	"strconv"

	"nft-marketplace-api/internal/models"

	"github.com/google/uuid"
)

// syntheticTemplate is one themed entry in the fallback catalog
type syntheticTemplate struct {
	name      string
	theme     string
	basePrice float64
}

// syntheticCatalog mirrors well-known collections so the fallback feed looks
// plausible when the indexer is unreachable
var syntheticCatalog = []syntheticTemplate{
	{"Solana Monkeys", "Colorful cartoon monkeys in different outfits and poses", 85},
	{"DeGods", "Artistic interpretations of godlike figures with unique traits", 320},
	{"y00ts", "Cute yeti-like characters with various accessories", 150},
	{"Okay Bears", "Cartoon bears with different expressions and clothing", 90},
	{"Solana Degen Apes", "Detailed ape illustrations with futuristic elements", 75},
	{"Aurory", "Fantasy creatures in a vibrant digital world", 48},
	{"Claynosaurz", "Clay-styled dinosaur characters in different colors", 32},
	{"Famous Fox Federation", "Stylized fox illustrations with unique traits", 25},
	{"Shadowy Super Coder", "Mysterious coding characters in the shadows", 112},
}

// statusForIndex applies the tab-to-status heuristic. The distribution is a
// presentation heuristic only: "progress" percentages and "sold" counts are
// cosmetic values, never authoritative supply data.
func statusForIndex(tab models.CategoryTab, index int, rng *rand.Rand) (models.CardStatus, *int) {
	progressValue := func(lo, span int) *int {
		p := lo + rng.Intn(span)
		return &p
	}

	switch tab {
	case models.TabMinted:
		return models.StatusSold, nil
	case models.TabGradually:
		return models.StatusProgress, progressValue(20, 71)
	case models.TabRecently:
		if index%3 == 0 {
			return models.StatusMinting, nil
		}
		return models.StatusProgress, progressValue(40, 41)
	default:
		switch index % 3 {
		case 0:
			return models.StatusMinting, nil
		case 1:
			return models.StatusProgress, progressValue(10, 90)
		default:
			return models.StatusSold, nil
		}
	}
}

// generateSynthetic builds a randomized card list of fixed size from the
// themed catalog, with statuses weighted by the active tab
func generateSynthetic(filter models.FeedFilter, count int, placeholderPattern string, rng *rand.Rand) []models.Card {
	if count <= 0 {
		count = len(syntheticCatalog)
	}

	cards := make([]models.Card, 0, count)
	for i := 0; i < count; i++ {
		template := syntheticCatalog[i%len(syntheticCatalog)]
		status, progress := statusForIndex(filter.Tab, i, rng)

		cards = append(cards, models.Card{
			ID:          strconv.Itoa(i + 1),
			Title:       template.name,
			Description: template.theme,
			Price:       template.basePrice + float64(rng.Intn(50)),
			Status:      status,
			Progress:    progress,
			Rating:      3 + rng.Intn(3),
			IsBoosted:   filter.Tab == models.TabTrending || rng.Float64() > 0.5,
			IsNew:       filter.Tab == models.TabRecently,
			Image:       placeholderImage(placeholderPattern, fmt.Sprintf("synthetic%d", i)),
			Mint:        uuid.NewString(),
		})
	}

	return cards
}

// staticFallback is the last-resort card list used if synthetic generation
// itself fails. Images use stable placeholder seeds so re-renders do not flicker.
func staticFallback(placeholderPattern string) []models.Card {
	progress := func(p int) *int { return &p }

	statuses := []struct {
		status   models.CardStatus
		progress *int
	}{
		{models.StatusMinting, nil},
		{models.StatusProgress, progress(70)},
		{models.StatusSold, nil},
		{models.StatusProgress, progress(75)},
		{models.StatusProgress, progress(75)},
		{models.StatusMinting, nil},
		{models.StatusSold, nil},
		{models.StatusProgress, progress(75)},
		{models.StatusSold, nil},
	}

	cards := make([]models.Card, 0, len(statuses))
	for i, s := range statuses {
		cards = append(cards, models.Card{
			ID:          strconv.Itoa(i + 1),
			Title:       "NFTART",
			Description: "Exclusive marketplace collection entry.",
			Price:       150,
			Status:      s.status,
			Progress:    s.progress,
			Rating:      3,
			IsBoosted:   true,
			Image:       placeholderImage(placeholderPattern, fmt.Sprintf("fallback%d", i)),
		})
	}
	return cards
}

// placeholderImage renders the configured placeholder URL pattern with a
// deterministic seed so the same slot always resolves to the same image
func placeholderImage(pattern, seed string) string {
	return fmt.Sprintf(pattern, seed)
}
