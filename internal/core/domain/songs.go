package domain

import "encoding/json"

// SongSet is the set of "Artist - Title" strings already offered in a session.
// It only grows and remembers the order songs were first offered in.
type SongSet struct {
	items map[string]struct{}
	order []string
}

// NewSongSet returns a set seeded with songs.
func NewSongSet(songs ...string) SongSet {
	s := SongSet{}
	for _, song := range songs {
		s.add(song)
	}
	return s
}

// Has reports whether song was already offered. Matching is exact and case-sensitive.
func (s SongSet) Has(song string) bool {
	_, ok := s.items[song]
	return ok
}

// Len returns the number of distinct offered songs.
func (s SongSet) Len() int {
	return len(s.items)
}

// Items returns the offered songs, oldest first.
func (s SongSet) Items() []string {
	return append(make([]string, 0, len(s.order)), s.order...)
}

// Admit returns the songs not offered before, in input order, and records them.
// Repeats inside songs are all returned as long as they were absent before the call.
func (s *SongSet) Admit(songs []string) []string {
	fresh := make([]string, 0, len(songs))
	for _, song := range songs {
		if !s.Has(song) {
			fresh = append(fresh, song)
		}
	}
	for _, song := range fresh {
		s.add(song)
	}
	return fresh
}

func (s *SongSet) add(song string) {
	if s.items == nil {
		s.items = make(map[string]struct{})
	}
	if _, ok := s.items[song]; ok {
		return
	}
	s.items[song] = struct{}{}
	s.order = append(s.order, song)
}

// Clone returns an independent copy.
func (s SongSet) Clone() SongSet {
	return NewSongSet(s.Items()...)
}

func (s SongSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Items())
}

func (s *SongSet) UnmarshalJSON(b []byte) error {
	var songs []string
	if err := json.Unmarshal(b, &songs); err != nil {
		return err
	}
	*s = NewSongSet(songs...)
	return nil
}
