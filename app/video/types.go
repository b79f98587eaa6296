package video

// Video holds normalized metadata for one video returned by the search
// gateway. Fields are never mutated after the gateway hands the record out.
type Video struct {
	Bvid        string `json:"bvid"`
	Aid         int64  `json:"aid"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Duration    string `json:"duration"`
	Pubdate     int64  `json:"pubdate"`
	Play        int64  `json:"play"`
	Danmaku     int64  `json:"danmaku"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// SearchResult is the cleaned outcome of one keyword search.
type SearchResult struct {
	Keyword string  `json:"keyword"`
	Count   int     `json:"count"`
	Videos  []Video `json:"videos"`
}
