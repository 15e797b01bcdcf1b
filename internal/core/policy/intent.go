package policy

import "strings"

// NameDetector judges whether a user message states the user's name.
type NameDetector interface {
	Detect(message string) bool
}

// introductionPatterns are self-introduction openers.
var introductionPatterns = []string{
	"meu nome é", "meu nome e", "me chamo", "pode me chamar", "sou o ", "sou a ", "aqui é",
	"my name is", "i'm ", "i am ", "call me", "this is ",
	"me llamo", "mi nombre es", "soy ",
}

// IntroductionDetector treats short messages or self-introductions as the name.
type IntroductionDetector struct {
	MaxWords int
}

// NewIntroductionDetector returns a detector accepting messages of up to three words.
func NewIntroductionDetector() IntroductionDetector {
	return IntroductionDetector{MaxWords: 3}
}

// Detect implements NameDetector.
func (d IntroductionDetector) Detect(message string) bool {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return false
	}
	maxWords := d.MaxWords
	if maxWords <= 0 {
		maxWords = 3
	}
	if len(strings.Fields(trimmed)) <= maxWords {
		return true
	}
	lower := strings.ToLower(trimmed)
	for _, p := range introductionPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// finalizePhrases are explicit requests to stop chatting and build the playlist.
var finalizePhrases = []string{
	"pode fechar", "pode gerar", "pode criar", "pode montar", "pode mandar", "manda ver", "manda bala",
	"fecha a playlist", "gera a playlist", "cria a playlist", "monta a playlist", "é isso", "só isso",
	"go ahead", "make the playlist", "create the playlist", "build the playlist", "finalize", "that's all",
	"puedes cerrar", "genera la playlist", "crea la playlist", "eso es todo",
}

// WantsFinalize reports whether message contains an explicit finalize phrase.
func WantsFinalize(message string) bool {
	lower := strings.ToLower(message)
	for _, p := range finalizePhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
