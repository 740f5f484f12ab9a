package models

// Result is the outcome of fetching one article page. Status follows HTTP
// semantics; 599 marks a network or browser failure.
type Result struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Byline      string `json:"byline"`
	PublishedAt string `json:"published_at"`
	Text        string `json:"text"`
	HTMLHash    string `json:"html_hash"`
	Status      int    `json:"status"`
	RenderMS    int    `json:"render_ms"`
}

// OK reports whether the page was retrieved and yielded article text.
func (r Result) OK() bool {
	return r.Status >= 200 && r.Status < 300 && r.Text != ""
}
