package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/ewilliams-labs/moodtunes/internal/core/domain"
)

// recommendationSchema is the only shape accepted as a structured reply.
const recommendationSchema = `{
  "type": "object",
  "required": ["mood", "rationale", "songs"],
  "additionalProperties": false,
  "properties": {
    "mood": {"type": "string"},
    "rationale": {"type": "string"},
    "songs": {
      "type": "array",
      "minItems": 1,
      "items": {"type": "string", "minLength": 1}
    }
  }
}`

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	var doc any
	if err := json.Unmarshal([]byte(recommendationSchema), &doc); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("recommendation.json", doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	return c.Compile("recommendation.json")
})

// ParseRecommendation extracts the structured recommendation from a model reply.
// Fenced code blocks are tried first, then the whole reply, then every well-formed
// object embedded in the text. The first candidate that validates wins. Songs
// beyond maxSongs are dropped; maxSongs <= 0 keeps them all.
func ParseRecommendation(reply string, maxSongs int) (domain.Recommendation, bool) {
	schema, err := compiledSchema()
	if err != nil {
		return domain.Recommendation{}, false
	}
	for _, candidate := range candidates(reply) {
		var inst any
		if err := json.Unmarshal([]byte(candidate), &inst); err != nil {
			continue
		}
		if err := schema.Validate(inst); err != nil {
			continue
		}
		var rec domain.Recommendation
		if err := json.Unmarshal([]byte(candidate), &rec); err != nil {
			continue
		}
		rec.Mood = strings.TrimSpace(rec.Mood)
		for i, s := range rec.Songs {
			rec.Songs[i] = strings.TrimSpace(s)
		}
		if maxSongs > 0 && len(rec.Songs) > maxSongs {
			rec.Songs = rec.Songs[:maxSongs]
		}
		return rec, true
	}
	return domain.Recommendation{}, false
}

func candidates(reply string) []string {
	var out []string
	out = append(out, fencedBlocks(reply)...)
	if trimmed := strings.TrimSpace(reply); trimmed != "" {
		out = append(out, trimmed)
	}
	out = append(out, embeddedObjects(reply)...)
	return out
}

// fencedBlocks returns the bodies of ``` fences, dropping an info string such as "json".
func fencedBlocks(text string) []string {
	var out []string
	rest := text
	for {
		open := strings.Index(rest, "```")
		if open == -1 {
			return out
		}
		rest = rest[open+3:]
		closing := strings.Index(rest, "```")
		if closing == -1 {
			return out
		}
		body := rest[:closing]
		rest = rest[closing+3:]
		if nl := strings.IndexByte(body, '\n'); nl != -1 && !strings.ContainsAny(body[:nl], "{[") {
			body = body[nl+1:]
		}
		if body = strings.TrimSpace(body); body != "" {
			out = append(out, body)
		}
	}
}

// embeddedObjects returns every well-formed object that starts at a '{' in
// text, in offset order. A stray brace only costs its own failed decode.
func embeddedObjects(text string) []string {
	var out []string
	for off := 0; off < len(text); off++ {
		next := strings.IndexByte(text[off:], '{')
		if next == -1 {
			break
		}
		off += next
		var raw json.RawMessage
		if err := json.NewDecoder(strings.NewReader(text[off:])).Decode(&raw); err != nil {
			continue
		}
		out = append(out, string(raw))
	}
	return out
}
