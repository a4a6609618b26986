package testutil

// Canned upstream payloads shared by package tests. Paths are the ones the
// upstream client requests for these titles.

const (
	PathMain         = "/"
	PathWidget       = "/ajax/widget/filter"
	PathMovieDetail  = "/movies/inception"
	PathSeriesDetail = "/tvseries/dark"
	PathSeason1      = "/tvseries/dark/season-1"
	PathSeason2      = "/tvseries/dark/season-2"
	PathMovies       = "/movies/"
	PathSeries       = "/tvseries/"
	PathVideoMovie   = "/api/v1/video/555"
	PathVideoTrailer = "/api/v1/video/777"
	PathVideoEpisode = "/api/v1/video/1002"
)

const MainJSON = `{"current_year": 2024}`

const WidgetJSON = `{
	"genres": {
		"7": {"name": "драма", "translit": "drama"},
		"2": {"name": "комедия", "translit": "comedy"},
		"11": {"name": "фантастика", "translit": "sci-fi"}
	},
	"countries": [
		{"name": "США", "translit": "usa"},
		{"name": "Германия", "translit": "germany"}
	]
}`

const MovieDetailJSON = `{
	"movie": {
		"name_id": "inception",
		"name_rus": "Начало",
		"name_eng": "Inception",
		"name_original": "Inception",
		"serial": false,
		"year": 2010,
		"image": "http://img.test/inception.jpg",
		"cover": "http://img.test/inception-cover.jpg",
		"description": "<p>Кобб &amp; его команда</p><p>проникают в сны.</p>",
		"runtime": {"value": 148},
		"mobi_link_id": 555,
		"mobi_link_date": "2015-06-01 12:00:00",
		"release_date_int": "8 июля 2010",
		"release_date_rus": "22 июля 2010",
		"trailer": {"url": "", "id": 777},
		"trailer_url": "/trailer/777",
		"rating": "7.9",
		"rating_count": 1000,
		"rating_imdb": 8.8,
		"rating_imdb_count": 2000000,
		"rating_kinopoisk": null
	},
	"backdrops": {"image_1280": "http://img.test/inception-fanart.jpg"},
	"genres": [{"name": "фантастика"}, {"name": "боевик"}],
	"countries": [{"name": "США"}, {"name": "Великобритания"}],
	"persons": {
		"actors": [
			{"name": "Леонардо ДиКаприо", "cover": "http://img.test/leo.jpg"},
			{"name": "Джозеф Гордон-Левитт", "cover": "http://img.test/jgl.jpg"}
		],
		"director": [{"name": "Кристофер Нолан"}, {"name": "Второй Режиссёр"}],
		"scenarist": [{"name": "Кристофер Нолан"}]
	}
}`

const darkSerial = `{
		"name_id": "dark",
		"name_rus": "Тьма",
		"name_eng": "Dark",
		"name_original": "Dark",
		"serial": true,
		"year": 2017,
		"image": "http://img.test/dark.jpg",
		"cover": "http://img.test/dark-cover.jpg",
		"description": "Исчезновение детей в немецком городке.",
		"runtime": {"value": 60},
		"release_date_rus": "1 декабря 2017",
		"trailer": {"url": "http://cdn.test/dark-trailer.mp4", "id": ""},
		"trailer_url": "/trailer/dark",
		"rating": 8.0,
		"rating_count": 500,
		"rating_imdb": "8.7",
		"rating_imdb_count": 400000,
		"rating_kinopoisk": 8.1,
		"rating_kinopoisk_count": 90000
	}`

const darkCommon = `
	"backdrops": {"image_1280": "http://img.test/dark-fanart.jpg"},
	"genres": [{"name": "драма"}, {"name": "фантастика"}],
	"countries": [{"name": "Германия"}],
	"persons": {
		"actors": [{"name": "Луис Хофманн", "cover": "http://img.test/louis.jpg"}],
		"director": [{"name": "Баран бо Одар"}],
		"scenarist": [{"name": "Янтье Фризе"}, {"name": "Баран бо Одар"}]
	},
	"seasons": {"count": 2},
	"images": {
		"1001": "http://img.test/ep1001.jpg",
		"1002": "http://img.test/ep1002.jpg",
		"2001": "http://img.test/ep2001.jpg"
	}`

const (
	ep101 = `{"season": 1, "episode": 1, "title": "Секреты", "mobi_link_id": 1001, "release_date": "2017-12-01 00:00:00", "episode_key": "s01e01"}`
	ep102 = `{"season": 1, "episode": 2, "title": "", "mobi_link_id": 1002, "release_date": "2017-12-01", "episode_key": "s01e02"}`
	ep103 = `{"season": 1, "episode": 3, "title": "Прошлое и настоящее", "mobi_link_id": 1003, "release_date": "2017-12-01", "episode_key": "s01e03"}`
	ep201 = `{"season": 2, "episode": 1, "title": "Начало и конец", "mobi_link_id": 2001, "release_date": "2019-06-21 00:00:00", "episode_key": "s02e01"}`
	ep202 = `{"season": 2, "episode": 2, "title": "Мёртвые", "mobi_link_id": 2002, "release_date": "2019-06-21", "episode_key": "s02e02"}`
)

// SeriesDetailJSON is the series root payload; the episode map arrives out
// of order.
const SeriesDetailJSON = `{
	"serial": ` + darkSerial + `,` + darkCommon + `,
	"episodes": {
		"count_all": 5,
		"items": {
			"x9": ` + ep202 + `,
			"a1": ` + ep103 + `,
			"k4": ` + ep101 + `,
			"b7": ` + ep201 + `,
			"q2": ` + ep102 + `
		}
	}
}`

// Season1MapJSON delivers season 1 as an object map.
const Season1MapJSON = `{
	"serial": ` + darkSerial + `,` + darkCommon + `,
	"episodes": {
		"count_all": 5,
		"items": {
			"z": ` + ep103 + `,
			"y": ` + ep101 + `,
			"x": ` + ep102 + `
		}
	}
}`

// Season1ListJSON delivers the same season as an array in another order.
const Season1ListJSON = `{
	"serial": ` + darkSerial + `,` + darkCommon + `,
	"episodes": {
		"count_all": 5,
		"items": [` + ep102 + `,` + ep103 + `,` + ep101 + `]
	}
}`

const Season2JSON = `{
	"serial": ` + darkSerial + `,` + darkCommon + `,
	"episodes": {
		"count_all": 5,
		"items": [` + ep201 + `,` + ep202 + `]
	}
}`

const ListingJSON = `{
	"title_h1": "  Фильмы онлайн  ",
	"items": [
		{"name_id": "inception", "name_rus": "Начало", "name_eng": "Inception", "serial": false, "year": 2010,
		 "cover": "http://img.test/inception-cover.jpg", "mobi_link_id": 555, "rating": 7.9, "rating_imdb": 8.8,
		 "trailer_url": "/trailer/777"},
		{"name_id": "dark", "name_rus": "Тьма", "name_eng": "", "serial": true, "year": 2017,
		 "cover": "http://img.test/dark-cover.jpg", "rating_kinopoisk": "8.1"},
		{"name_id": "1917", "name_rus": 1917, "serial": false, "year": 2019, "cover": "http://img.test/1917.jpg"}
	],
	"pagination": {"total_pages": 3}
}`

const SearchJSON = `{
	"items": [
		{"name_id": "dark", "name_rus": "Тьма", "name_eng": "Dark", "serial": true, "year": 2017, "cover": "http://img.test/dark-cover.jpg"}
	],
	"is_second": true,
	"pagination": {"total_pages": 1}
}`

const EmptySearchJSON = `{"items": [], "is_second": false, "pagination": {"total_pages": 0}}`

const VideoMovieJSON = `{"url": "http://cdn.test/inception-hq.mp4", "lqUrl": "http://cdn.test/inception-lq.mp4"}`

const VideoTrailerJSON = `{"url": "http://cdn.test/trailer-hq.mp4", "lqUrl": ""}`

const VideoEpisodeJSON = `{"url": "", "lqUrl": "http://cdn.test/ep1002-lq.mp4"}`

// AllRoutes maps every fixture path to its payload.
func AllRoutes() map[string]string {
	return map[string]string{
		PathMain:           MainJSON,
		PathWidget:         WidgetJSON,
		PathMovieDetail:    MovieDetailJSON,
		PathSeriesDetail:   SeriesDetailJSON,
		PathSeason1:        Season1MapJSON,
		PathSeason2:        Season2JSON,
		PathMovies:         ListingJSON,
		PathSeries:         ListingJSON,
		PathVideoMovie:     VideoMovieJSON,
		PathVideoTrailer:   VideoTrailerJSON,
		PathVideoEpisode:   VideoEpisodeJSON,
		"/search//dark":    SearchJSON,
		"/search//nothing": EmptySearchJSON,
		"/updates/movies":  ListingJSON,
	}
}
