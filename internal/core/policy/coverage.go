// Package policy decides, turn by turn, whether the conversation keeps
// gathering context or forces the model into a structured recommendation.
package policy

import (
	"strings"

	"github.com/ewilliams-labs/moodtunes/internal/core/domain"
)

// DefaultCoverageWindow bounds how much trailing user text is scanned.
const DefaultCoverageWindow = 2000

// MaxCoverage is the number of discovery slots.
const MaxCoverage = 5

// CoverageScorer scores how many discovery slots a history fills.
type CoverageScorer interface {
	Score(history []domain.Message) int
}

// Slot is one discovery slot and the vocabulary that fills it.
type Slot struct {
	Name  string
	Terms []string
}

// DefaultSlots covers mood, context, genre, language/era and instrumental-vs-vocal
// in Portuguese, English and Spanish.
var DefaultSlots = []Slot{
	{
		Name: "mood",
		Terms: []string{
			"feliz", "alegre", "triste", "calmo", "calma", "tranquil", "ansios", "animad", "empolgad",
			"cansad", "nostálg", "nostalg", "romântic", "romantic", "raiva", "irritad", "motivad", "relaxad",
			"energia", "energético", "agitad", "melancól", "happy", "sad", "calm", "angry", "anxious",
			"excited", "tired", "chill", "energetic", "relaxed", "mood", "humor", "contento",
		},
	},
	{
		Name: "context",
		Terms: []string{
			"correr", "corrida", "academia", "treino", "trabalh", "estud", "dormir", "festa", "viagem",
			"dirigir", "cozinh", "jantar", "foco", "focar", "concentr", "meditar", "limpar", "faxina",
			"running", "workout", "gym", "work", "study", "sleep", "party", "road trip", "driving",
			"cooking", "dinner", "focus", "meditat", "commute", "fiesta", "viaje", "estudiar",
		},
	},
	{
		Name: "preference",
		Terms: []string{
			"rock", "pop", "jazz", "samba", "mpb", "funk", "sertanejo", "forró", "pagode", "rap",
			"hip hop", "hip-hop", "eletrônic", "electronic", "house", "techno", "indie", "metal", "blues",
			"reggae", "bossa", "clássic", "classical", "lo-fi", "lofi", "r&b", "soul", "country", "k-pop",
			"gênero", "genero", "genre", "estilo", "não gosto", "nao gosto", "odeio", "sem ", "evite",
			"don't like", "dont like", "hate", "avoid", "no quiero",
		},
	},
	{
		Name: "language_era",
		Terms: []string{
			"anos 60", "anos 70", "anos 80", "anos 90", "anos 2000", "60s", "70s", "80s", "90s", "2000s",
			"antig", "velh", "nova", "novas", "atual", "recente", "lançamento", "década", "decada",
			"oldies", "retro", "classic hits", "new releases", "recent", "old school", "throwback",
			"português", "portugues", "nacional", "brasileir", "inglês", "ingles", "english", "espanhol",
			"spanish", "español", "latin", "idioma", "language", "gringa", "internacional",
		},
	},
	{
		Name: "instrumentation",
		Terms: []string{
			"instrumental", "sem letra", "sem voz", "com letra", "vocal", "cantad", "voz", "lyrics",
			"no vocals", "without lyrics", "singing", "sin letra", "acústic", "acustic", "acoustic",
			"piano", "violão", "violao", "guitar", "orquestra", "orchestra",
		},
	},
}

// KeywordCoverage scores coverage by vocabulary membership over the trailing
// user text. Each slot contributes at most one point.
type KeywordCoverage struct {
	Window int
	Slots  []Slot
}

// NewKeywordCoverage returns a scorer over DefaultSlots.
func NewKeywordCoverage() KeywordCoverage {
	return KeywordCoverage{Window: DefaultCoverageWindow, Slots: DefaultSlots}
}

// Score implements CoverageScorer.
func (k KeywordCoverage) Score(history []domain.Message) int {
	text := userText(history, k.window())
	if text == "" {
		return 0
	}
	score := 0
	for _, slot := range k.Slots {
		for _, term := range slot.Terms {
			if strings.Contains(text, term) {
				score++
				break
			}
		}
	}
	return score
}

func (k KeywordCoverage) window() int {
	if k.Window <= 0 {
		return DefaultCoverageWindow
	}
	return k.Window
}

// userText joins user-authored messages, lower-cases them and keeps the last
// window bytes, cut back to a rune boundary.
func userText(history []domain.Message, window int) string {
	var b strings.Builder
	for _, m := range history {
		if m.Role != domain.RoleUser {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(m.Content)
	}
	text := b.String()
	if len(text) > window {
		cut := len(text) - window
		for cut < len(text) && !isRuneStart(text[cut]) {
			cut++
		}
		text = text[cut:]
	}
	return strings.ToLower(text)
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
