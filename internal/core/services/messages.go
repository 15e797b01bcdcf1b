package services

import (
	"fmt"
	"strings"
)

// Supported session languages.
const (
	LangPortuguese = "pt"
	LangEnglish    = "en"
	LangSpanish    = "es"
)

// NormalizeLanguage maps a language tag to a supported language, defaulting to Portuguese.
func NormalizeLanguage(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if len(tag) > 2 {
		tag = tag[:2]
	}
	switch tag {
	case LangEnglish, LangSpanish:
		return tag
	default:
		return LangPortuguese
	}
}

type phrasebook struct {
	system      string
	directive   string
	avoid       string
	built       string
	connect     string
	nothingNew  string
	noTracks    string
	description string
}

var phrasebooks = map[string]phrasebook{
	LangPortuguese: {
		system: "Você é o MoodTunes, um assistente musical que cria playlists no Spotify. " +
			"Regras importantes:\n" +
			"1. Antes de qualquer coisa, pergunte o nome da pessoa.\n" +
			"2. Seja natural e amigável, use emojis musicais (🎵, 🎶, 🎧).\n" +
			"3. Mantenha respostas curtas (1-2 frases) e faça uma pergunta por vez.\n" +
			"4. Descubra o humor, o contexto ou atividade, os gêneros preferidos ou evitados, o idioma ou a época, e se prefere música instrumental ou cantada.\n" +
			"5. Nunca responda em JSON a menos que seja pedido explicitamente.",
		directive: "Agora responda APENAS com um objeto JSON, sem texto extra, no formato " +
			`{"mood": "<humor>", "rationale": "<por que estas músicas>", "songs": ["Artista - Título", ...]}` +
			" com entre %d e %d músicas.",
		avoid:       " Não repita estas músicas: %s.",
		built:       "🎶 Pronto! Criei a playlist \"%s\" com %d músicas para você: %s",
		connect:     "🎧 Separei %d músicas para o seu momento. Conecte sua conta do Spotify para eu montar a playlist!",
		nothingNew:  "🎵 Já te mostrei essas músicas. Que tal mudar o ângulo: outro gênero, outra época ou algo instrumental?",
		noTracks:    "🎵 Não encontrei essas músicas no Spotify. Me conta um pouco mais do que você quer ouvir?",
		description: "Humor: %s. %s",
	},
	LangEnglish: {
		system: "You are MoodTunes, a music assistant that builds Spotify playlists. " +
			"Important rules:\n" +
			"1. First of all, ask for the person's name.\n" +
			"2. Be natural and friendly, use music emojis (🎵, 🎶, 🎧).\n" +
			"3. Keep replies short (1-2 sentences) and ask one question at a time.\n" +
			"4. Find out the mood, the context or activity, preferred or avoided genres, language or era, and whether they want instrumental or vocal music.\n" +
			"5. Never answer in JSON unless explicitly asked.",
		directive: "Now reply ONLY with a JSON object, no extra text, shaped as " +
			`{"mood": "<mood>", "rationale": "<why these songs>", "songs": ["Artist - Title", ...]}` +
			" with between %d and %d songs.",
		avoid:       " Do not repeat these songs: %s.",
		built:       "🎶 Done! I created the playlist \"%s\" with %d songs for you: %s",
		connect:     "🎧 I picked %d songs for your moment. Connect your Spotify account so I can build the playlist!",
		nothingNew:  "🎵 I already showed you those songs. How about a different angle: another genre, another era or something instrumental?",
		noTracks:    "🎵 I couldn't find those songs on Spotify. Tell me a bit more about what you want to hear?",
		description: "Mood: %s. %s",
	},
	LangSpanish: {
		system: "Eres MoodTunes, un asistente musical que crea playlists en Spotify. " +
			"Reglas importantes:\n" +
			"1. Antes que nada, pregunta el nombre de la persona.\n" +
			"2. Sé natural y amable, usa emojis musicales (🎵, 🎶, 🎧).\n" +
			"3. Mantén las respuestas cortas (1-2 frases) y haz una pregunta a la vez.\n" +
			"4. Descubre el estado de ánimo, el contexto o actividad, los géneros preferidos o evitados, el idioma o la época, y si prefiere música instrumental o cantada.\n" +
			"5. Nunca respondas en JSON a menos que se pida explícitamente.",
		directive: "Ahora responde SOLO con un objeto JSON, sin texto extra, con la forma " +
			`{"mood": "<ánimo>", "rationale": "<por qué estas canciones>", "songs": ["Artista - Título", ...]}` +
			" con entre %d y %d canciones.",
		avoid:       " No repitas estas canciones: %s.",
		built:       "🎶 ¡Listo! Creé la playlist \"%s\" con %d canciones para ti: %s",
		connect:     "🎧 Elegí %d canciones para tu momento. ¡Conecta tu cuenta de Spotify para que arme la playlist!",
		nothingNew:  "🎵 Ya te mostré esas canciones. ¿Probamos otro ángulo: otro género, otra época o algo instrumental?",
		noTracks:    "🎵 No encontré esas canciones en Spotify. ¿Me cuentas un poco más de lo que quieres escuchar?",
		description: "Ánimo: %s. %s",
	},
}

func phrases(lang string) phrasebook {
	return phrasebooks[NormalizeLanguage(lang)]
}

func (p phrasebook) builtAck(name string, count int, url string) string {
	return fmt.Sprintf(p.built, name, count, url)
}

func (p phrasebook) connectAck(count int) string {
	return fmt.Sprintf(p.connect, count)
}
