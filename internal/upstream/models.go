package upstream

import (
	"encoding/json"
	"fmt"
)

// Title is the movie/serial object as it appears both in listing rows and in
// detail payloads. Fields not modeled here are kept in Raw so ratings can be
// read by derived field name.
type Title struct {
	NameID         FlexString `json:"name_id"`
	NameRus        FlexString `json:"name_rus"`
	NameEng        FlexString `json:"name_eng"`
	NameOriginal   FlexString `json:"name_original"`
	Serial         FlexBool   `json:"serial"`
	Year           FlexInt    `json:"year"`
	Image          FlexString `json:"image"`
	Cover          FlexString `json:"cover"`
	Description    FlexString `json:"description"`
	Runtime        Runtime    `json:"runtime"`
	MobiLinkID     FlexString `json:"mobi_link_id"`
	MobiLinkDate   FlexString `json:"mobi_link_date"`
	ReleaseDateInt FlexString `json:"release_date_int"`
	ReleaseDateRus FlexString `json:"release_date_rus"`
	Trailer        Trailer    `json:"trailer"`
	TrailerURL     FlexString `json:"trailer_url"`

	Raw map[string]json.RawMessage `json:"-"`
}

func (t *Title) UnmarshalJSON(data []byte) error {
	type plain Title
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if err := json.Unmarshal(data, &p.Raw); err != nil {
		return err
	}
	*t = Title(p)
	return nil
}

// Float reads a numeric field by name. Missing, null or non-numeric values are 0.
func (t *Title) Float(field string) float64 {
	return parseNumber(t.Raw[field])
}

// Int reads an integer field by name, truncating fractions.
func (t *Title) Int(field string) int {
	var v FlexInt
	_ = v.UnmarshalJSON(t.Raw[field])
	return int(v)
}

// Runtime is the {"value": minutes} object. Anything else decodes as absent.
type Runtime struct {
	Value FlexInt `json:"value"`
	Set   bool    `json:"-"`
}

func (r *Runtime) UnmarshalJSON(data []byte) error {
	*r = Runtime{}
	if !isObject(data) || isEmptyContainer(data) {
		return nil
	}
	var v struct {
		Value FlexInt `json:"value"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	r.Value = v.Value
	r.Set = true
	return nil
}

// Trailer is either a direct URL or an internal playback id.
type Trailer struct {
	URL FlexString `json:"url"`
	ID  FlexString `json:"id"`
}

func (tr *Trailer) UnmarshalJSON(data []byte) error {
	*tr = Trailer{}
	if !isObject(data) || isEmptyContainer(data) {
		return nil
	}
	type plain Trailer
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*tr = Trailer(p)
	return nil
}

// Named is a {name, cover} entry used for genres, countries and persons.
type Named struct {
	Name     FlexString `json:"name"`
	Cover    FlexString `json:"cover"`
	Translit FlexString `json:"translit"`
}

// Persons groups the credit lists of a detail payload.
type Persons struct {
	Actors    []Named `json:"actors"`
	Director  []Named `json:"director"`
	Scenarist []Named `json:"scenarist"`
}

func (p *Persons) UnmarshalJSON(data []byte) error {
	*p = Persons{}
	if !isObject(data) || isEmptyContainer(data) {
		return nil
	}
	var v struct {
		Actors    NamedList `json:"actors"`
		Director  NamedList `json:"director"`
		Scenarist NamedList `json:"scenarist"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	p.Actors, p.Director, p.Scenarist = v.Actors, v.Director, v.Scenarist
	return nil
}

// NamedList decodes either an array of Named or an object of Named values,
// keeping document order for the object form.
type NamedList []Named

func (l *NamedList) UnmarshalJSON(data []byte) error {
	*l = nil
	if isEmptyContainer(data) {
		return nil
	}
	if !isObject(data) {
		var items []Named
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*l = items
		return nil
	}
	return walkObject(data, func(_ string, value json.RawMessage) error {
		var n Named
		if err := json.Unmarshal(value, &n); err != nil {
			return err
		}
		*l = append(*l, n)
		return nil
	})
}

// Backdrops holds the fanart image variants.
type Backdrops struct {
	Image1280 FlexString `json:"image_1280"`
}

func (b *Backdrops) UnmarshalJSON(data []byte) error {
	*b = Backdrops{}
	if !isObject(data) || isEmptyContainer(data) {
		return nil
	}
	type plain Backdrops
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*b = Backdrops(p)
	return nil
}

// ImageMap maps episode playback ids to thumbnail URLs.
type ImageMap map[string]string

func (m *ImageMap) UnmarshalJSON(data []byte) error {
	*m = ImageMap{}
	if !isObject(data) || isEmptyContainer(data) {
		return nil
	}
	return walkObject(data, func(key string, value json.RawMessage) error {
		var s FlexString
		if err := s.UnmarshalJSON(value); err != nil {
			return err
		}
		(*m)[key] = string(s)
		return nil
	})
}

// Episode is a single entry of a season's episode list.
type Episode struct {
	Season      FlexInt    `json:"season"`
	Episode     FlexInt    `json:"episode"`
	Title       FlexString `json:"title"`
	MobiLinkID  FlexString `json:"mobi_link_id"`
	ReleaseDate FlexString `json:"release_date"`
	EpisodeKey  FlexString `json:"episode_key"`
}

// EpisodeList decodes the episode collection, which upstream sends either as
// an array or as an object keyed by an opaque id. Object members are kept in
// document order.
type EpisodeList []Episode

func (l *EpisodeList) UnmarshalJSON(data []byte) error {
	*l = nil
	if isEmptyContainer(data) {
		return nil
	}
	if !isObject(data) {
		var items []Episode
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("episode list: %w", err)
		}
		*l = items
		return nil
	}
	return walkObject(data, func(_ string, value json.RawMessage) error {
		var ep Episode
		if err := json.Unmarshal(value, &ep); err != nil {
			return fmt.Errorf("episode list: %w", err)
		}
		*l = append(*l, ep)
		return nil
	})
}

// Episodes is the episodes block of a series payload.
type Episodes struct {
	CountAll FlexInt     `json:"count_all"`
	Items    EpisodeList `json:"items"`
}

func (e *Episodes) UnmarshalJSON(data []byte) error {
	*e = Episodes{}
	if !isObject(data) || isEmptyContainer(data) {
		return nil
	}
	type plain Episodes
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*e = Episodes(p)
	return nil
}

// Seasons is the seasons block of a series payload.
type Seasons struct {
	Count FlexInt `json:"count"`
	Set   bool    `json:"-"`
}

func (s *Seasons) UnmarshalJSON(data []byte) error {
	*s = Seasons{}
	if !isObject(data) || isEmptyContainer(data) {
		return nil
	}
	var v struct {
		Count FlexInt `json:"count"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	s.Count = v.Count
	s.Set = true
	return nil
}

// Detail is the payload of the details and season endpoints.
type Detail struct {
	Movie     *Title    `json:"movie"`
	Serial    *Title    `json:"serial"`
	Backdrops Backdrops `json:"backdrops"`
	Genres    NamedList `json:"genres"`
	Countries NamedList `json:"countries"`
	Persons   Persons   `json:"persons"`
	Seasons   Seasons   `json:"seasons"`
	Episodes  Episodes  `json:"episodes"`
	Images    ImageMap  `json:"images"`
}

// Item returns the movie or serial object, whichever is present.
func (d *Detail) Item() *Title {
	if d.Movie != nil {
		return d.Movie
	}
	return d.Serial
}

// Pagination carries page counts for listings and search.
type Pagination struct {
	TotalPages FlexInt `json:"total_pages"`
	Set        bool    `json:"-"`
}

func (p *Pagination) UnmarshalJSON(data []byte) error {
	*p = Pagination{}
	if !isObject(data) || isEmptyContainer(data) {
		return nil
	}
	var v struct {
		TotalPages FlexInt `json:"total_pages"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	p.TotalPages = v.TotalPages
	p.Set = true
	return nil
}

// Listing is a browse or updates page.
type Listing struct {
	TitleH1    *FlexString `json:"title_h1"`
	Items      []Title     `json:"items"`
	Pagination Pagination  `json:"pagination"`
}

// SearchResult is a search page.
type SearchResult struct {
	Items      []Title    `json:"items"`
	IsSecond   FlexBool   `json:"is_second"`
	Pagination Pagination `json:"pagination"`
}

// Widget is the filter widget payload. Genres arrive as an object keyed by
// id and are kept in document order.
type Widget struct {
	Genres    NamedList `json:"genres"`
	Countries NamedList `json:"countries"`
}

// MainPage is the root page payload.
type MainPage struct {
	CurrentYear FlexInt `json:"current_year"`
}

// VideoLinks holds the two quality variants for a playback id.
type VideoLinks struct {
	URL   FlexString `json:"url"`
	LQURL FlexString `json:"lqUrl"`
}
