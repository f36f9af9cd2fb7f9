package wiktionary

// apiResponse is the MediaWiki query API response with formatversion=2.
type apiResponse struct {
	Query struct {
		Pages []apiPage `json:"pages"`
	} `json:"query"`
}

// apiPage is one requested title. Missing is set when the page does not exist.
type apiPage struct {
	Title     string        `json:"title"`
	Missing   bool          `json:"missing"`
	Invalid   bool          `json:"invalid"`
	Revisions []apiRevision `json:"revisions"`
}

// apiRevision carries the wikitext of the latest revision.
type apiRevision struct {
	Slots struct {
		Main struct {
			Content string `json:"content"`
		} `json:"main"`
	} `json:"slots"`
}
