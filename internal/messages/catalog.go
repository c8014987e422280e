package messages

import (
	"fmt"

	"github.com/preciousyou/precious-backend/pkg/enums"
)

// Message is one entry of the static nudge catalog. Texts are written in
// Russian and may carry a {{name}} placeholder filled in at send time.
type Message struct {
	ID       string
	Text     string
	Category enums.MessageCategory
	Tone     enums.Tone
}

// Catalog is the full message bank shipped with the binary.
var Catalog = []Message{
	// affirmation, female
	{ID: "aff-1", Text: "{{name}}, ты хорошая", Category: enums.CategoryAffirmation, Tone: enums.ToneFemale},
	{ID: "aff-2", Text: "Ты достаточно. Просто такая, какая есть", Category: enums.CategoryAffirmation, Tone: enums.ToneFemale},
	{ID: "aff-3", Text: "{{name}}, ты заслуживаешь любви", Category: enums.CategoryAffirmation, Tone: enums.ToneFemale},
	{ID: "aff-4", Text: "Ты ценная. Не забывай об этом", Category: enums.CategoryAffirmation, Tone: enums.ToneFemale},

	// motivation, female
	{ID: "mot-1", Text: "{{name}}, ты справишься!", Category: enums.CategoryMotivation, Tone: enums.ToneFemale},
	{ID: "mot-2", Text: "У тебя всё получится", Category: enums.CategoryMotivation, Tone: enums.ToneFemale},
	{ID: "mot-3", Text: "Ты сильнее, чем думаешь", Category: enums.CategoryMotivation, Tone: enums.ToneFemale},
	{ID: "mot-4", Text: "Каждый маленький шаг — это прогресс", Category: enums.CategoryMotivation, Tone: enums.ToneFemale},

	// comfort, female
	{ID: "com-1", Text: "Всё будет хорошо", Category: enums.CategoryComfort, Tone: enums.ToneFemale},
	{ID: "com-2", Text: "{{name}}, ты в безопасности", Category: enums.CategoryComfort, Tone: enums.ToneFemale},
	{ID: "com-3", Text: "Можно просто быть. Не нужно ничего доказывать", Category: enums.CategoryComfort, Tone: enums.ToneFemale},
	{ID: "com-4", Text: "Сегодня можно отдохнуть", Category: enums.CategoryComfort, Tone: enums.ToneFemale},

	// appreciation, female
	{ID: "app-1", Text: "{{name}}, ты умничка!", Category: enums.CategoryAppreciation, Tone: enums.ToneFemale},
	{ID: "app-2", Text: "Ты молодец, что стараешься", Category: enums.CategoryAppreciation, Tone: enums.ToneFemale},
	{ID: "app-3", Text: "Горжусь тобой", Category: enums.CategoryAppreciation, Tone: enums.ToneFemale},

	// self-worth, female
	{ID: "sw-1", Text: "Ты важная", Category: enums.CategorySelfWorth, Tone: enums.ToneFemale},
	{ID: "sw-2", Text: "{{name}}, мир лучше, потому что ты в нём есть", Category: enums.CategorySelfWorth, Tone: enums.ToneFemale},
	{ID: "sw-3", Text: "Ты уникальная и неповторимая", Category: enums.CategorySelfWorth, Tone: enums.ToneFemale},

	// neutral variants
	{ID: "aff-n-1", Text: "{{name}}, ты замечательный человек", Category: enums.CategoryAffirmation, Tone: enums.ToneNeutral},
	{ID: "mot-n-1", Text: "Верю в тебя!", Category: enums.CategoryMotivation, Tone: enums.ToneNeutral},
	{ID: "com-n-1", Text: "Ты не одна/один", Category: enums.CategoryComfort, Tone: enums.ToneNeutral},
}

func init() {
	seen := make(map[string]struct{}, len(Catalog))
	for _, m := range Catalog {
		if m.ID == "" || m.Text == "" {
			panic(fmt.Sprintf("message catalog: entry %+v missing id or text", m))
		}
		if _, dup := seen[m.ID]; dup {
			panic(fmt.Sprintf("message catalog: duplicate id %q", m.ID))
		}
		seen[m.ID] = struct{}{}
	}
}
