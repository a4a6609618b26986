package upstream

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTitle_NumericTitleKeptVerbatim(t *testing.T) {
	var title Title
	require.NoError(t, json.Unmarshal([]byte(`{"name_id":"1917","name_rus":1917,"name_eng":null,"serial":false,"year":"2019"}`), &title))

	assert.Equal(t, FlexString("1917"), title.NameRus)
	assert.Equal(t, FlexString(""), title.NameEng)
	assert.Equal(t, FlexInt(2019), title.Year)
	assert.False(t, bool(title.Serial))
}

func TestTitle_RawFields(t *testing.T) {
	var title Title
	require.NoError(t, json.Unmarshal([]byte(`{
		"name_id":"x","serial":1,
		"rating":"7.5","rating_count":120,
		"rating_imdb":8.1,"rating_imdb_count":"5000",
		"rating_kinopoisk":null
	}`), &title))

	assert.True(t, bool(title.Serial))
	assert.InDelta(t, 7.5, title.Float("rating"), 1e-9)
	assert.Equal(t, 120, title.Int("rating_count"))
	assert.InDelta(t, 8.1, title.Float("rating_imdb"), 1e-9)
	assert.Equal(t, 5000, title.Int("rating_imdb_count"))
	assert.Equal(t, 0.0, title.Float("rating_kinopoisk"))
	assert.Equal(t, "null", string(title.Raw["rating_kinopoisk"]))
	assert.Equal(t, 0, title.Int("rating_kinopoisk_count"))
}

func TestTitle_LenientSubObjects(t *testing.T) {
	var title Title
	require.NoError(t, json.Unmarshal([]byte(`{"runtime":[],"trailer":null}`), &title))
	assert.False(t, title.Runtime.Set)
	assert.Equal(t, Trailer{}, title.Trailer)

	require.NoError(t, json.Unmarshal([]byte(`{"runtime":{"value":"95"},"trailer":{"url":"","id":42}}`), &title))
	assert.True(t, title.Runtime.Set)
	assert.Equal(t, FlexInt(95), title.Runtime.Value)
	assert.Equal(t, FlexString("42"), title.Trailer.ID)
}

func TestEpisodeList_ObjectKeepsDocumentOrder(t *testing.T) {
	var list EpisodeList
	require.NoError(t, json.Unmarshal([]byte(`{
		"z9":{"season":1,"episode":3,"episode_key":"s01e03"},
		"a1":{"season":1,"episode":1,"episode_key":"s01e01"},
		"m5":{"season":1,"episode":2,"episode_key":"s01e02"}
	}`), &list))

	require.Len(t, list, 3)
	assert.Equal(t, FlexInt(3), list[0].Episode)
	assert.Equal(t, FlexInt(1), list[1].Episode)
	assert.Equal(t, FlexInt(2), list[2].Episode)
}

func TestEpisodeList_ArrayAndEmpty(t *testing.T) {
	var list EpisodeList
	require.NoError(t, json.Unmarshal([]byte(`[{"season":"2","episode":"1","title":101}]`), &list))
	require.Len(t, list, 1)
	assert.Equal(t, FlexInt(2), list[0].Season)
	assert.Equal(t, FlexString("101"), list[0].Title)

	require.NoError(t, json.Unmarshal([]byte(`[]`), &list))
	assert.Empty(t, list)
	require.NoError(t, json.Unmarshal([]byte(`{}`), &list))
	assert.Empty(t, list)
}

func TestDetail_Decode(t *testing.T) {
	body := []byte(`{
		"serial":{"name_id":"dark","name_rus":"Тьма","serial":true},
		"backdrops":{"image_1280":"http://img/fan.jpg"},
		"genres":[{"name":"драма"},{"name":"фантастика"}],
		"countries":[{"name":"Германия"}],
		"persons":{"actors":[{"name":"Луис Хофманн","cover":"http://img/a.jpg"}],"director":[{"name":"Баран бо Одар"},{"name":"Second"}]},
		"seasons":{"count":3},
		"episodes":{"count_all":26,"items":[]},
		"images":{"555":"http://img/555.jpg"}
	}`)

	d, err := ParseDetail(body)
	require.NoError(t, err)
	require.NotNil(t, d.Item())
	assert.Nil(t, d.Movie)
	assert.Equal(t, FlexString("dark"), d.Item().NameID)
	assert.Equal(t, FlexString("http://img/fan.jpg"), d.Backdrops.Image1280)
	assert.Len(t, d.Genres, 2)
	assert.Len(t, d.Persons.Director, 2)
	assert.Equal(t, FlexInt(3), d.Seasons.Count)
	assert.True(t, d.Seasons.Set)
	assert.Equal(t, FlexInt(26), d.Episodes.CountAll)
	assert.Equal(t, "http://img/555.jpg", d.Images["555"])
}

func TestDetail_EmptyContainers(t *testing.T) {
	d, err := ParseDetail([]byte(`{"movie":{"name_id":"m"},"backdrops":[],"persons":[],"images":[],"seasons":[]}`))
	require.NoError(t, err)
	assert.Equal(t, FlexString(""), d.Backdrops.Image1280)
	assert.Empty(t, d.Persons.Actors)
	assert.Empty(t, d.Images)
	assert.False(t, d.Seasons.Set)
}

func TestWidget_GenresObjectOrder(t *testing.T) {
	var w Widget
	require.NoError(t, json.Unmarshal([]byte(`{
		"genres":{"12":{"name":"драма","translit":"drama"},"3":{"name":"комедия","translit":"comedy"}},
		"countries":[{"name":"США","translit":"usa"}]
	}`), &w))

	require.Len(t, w.Genres, 2)
	assert.Equal(t, FlexString("drama"), w.Genres[0].Translit)
	assert.Equal(t, FlexString("comedy"), w.Genres[1].Translit)
	assert.Equal(t, FlexString("usa"), w.Countries[0].Translit)
}

func TestFlexBool(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{`true`, true}, {`false`, false}, {`1`, true}, {`0`, false},
		{`"1"`, true}, {`"0"`, false}, {`null`, false}, {`""`, false},
	}
	for _, tt := range tests {
		var b FlexBool
		require.NoError(t, json.Unmarshal([]byte(tt.in), &b))
		assert.Equal(t, tt.want, bool(b), tt.in)
	}
}
